package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smartcondo/condominio/internal/clock"
	"github.com/smartcondo/condominio/internal/commonarea/domain"
	"github.com/smartcondo/condominio/internal/config"
	"github.com/smartcondo/condominio/pkg/db"
	"github.com/smartcondo/condominio/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Billing *config.BillingConfigHolder
	Repo    domain.Repository
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	billing *config.BillingConfigHolder
	repo    domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("commonarea.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		billing: p.Billing,
		repo:    p.Repo,
	}
}

// parseClock turns "HH:MM" into minutes since midnight.
func parseClock(value string) (int, bool) {
	t, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

// slotMinutes computes the booked duration; an end before the start
// means the slot spills into the next day.
func slotMinutes(startMin, endMin int) int {
	if endMin <= startMin {
		endMin += 24 * 60
	}
	return endMin - startMin
}

func costCents(costPerHourCents int64, minutes int) int64 {
	return costPerHourCents * int64(minutes) / 60
}

func (s *Service) CreateArea(ctx context.Context, req domain.CreateAreaRequest) (domain.CommonArea, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.CommonArea{}, domain.ErrInvalidName
	}
	if req.Capacity <= 0 {
		return domain.CommonArea{}, domain.ErrInvalidCapacity
	}

	from := req.AvailableFrom
	if from == "" {
		from = "06:00"
	}
	to := req.AvailableTo
	if to == "" {
		to = "22:00"
	}
	fromMin, ok := parseClock(from)
	if !ok {
		return domain.CommonArea{}, domain.ErrInvalidTimeWindow
	}
	toMin, ok := parseClock(to)
	if !ok || toMin <= fromMin {
		return domain.CommonArea{}, domain.ErrInvalidTimeWindow
	}

	now := s.clock.Now()
	area := domain.CommonArea{
		ID:               s.genID.Generate(),
		Name:             name,
		Slug:             slug.Make(name),
		Description:      strings.TrimSpace(req.Description),
		Capacity:         req.Capacity,
		CostPerHourCents: req.CostPerHourCents,
		IsReservable:     true,
		IsActive:         true,
		AvailableFrom:    from,
		AvailableTo:      to,

		AvailableMonday:    true,
		AvailableTuesday:   true,
		AvailableWednesday: true,
		AvailableThursday:  true,
		AvailableFriday:    true,
		AvailableSaturday:  true,
		AvailableSunday:    true,

		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.IsReservable != nil {
		area.IsReservable = *req.IsReservable
	}
	for _, day := range req.ClosedWeekdays {
		switch time.Weekday(day) {
		case time.Monday:
			area.AvailableMonday = false
		case time.Tuesday:
			area.AvailableTuesday = false
		case time.Wednesday:
			area.AvailableWednesday = false
		case time.Thursday:
			area.AvailableThursday = false
		case time.Friday:
			area.AvailableFriday = false
		case time.Saturday:
			area.AvailableSaturday = false
		case time.Sunday:
			area.AvailableSunday = false
		}
	}

	if err := s.repo.InsertArea(ctx, s.db, &area); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.CommonArea{}, domain.ErrNameTaken
		}
		return domain.CommonArea{}, err
	}

	s.log.Info("common area created",
		zap.String("area_id", area.ID.String()),
		zap.String("slug", area.Slug),
	)
	return area, nil
}

func (s *Service) GetAreaBySlug(ctx context.Context, areaSlug string) (domain.CommonArea, error) {
	area, err := s.repo.FindAreaBySlug(ctx, s.db, strings.TrimSpace(areaSlug))
	if err != nil {
		return domain.CommonArea{}, err
	}
	if area == nil {
		return domain.CommonArea{}, domain.ErrAreaNotFound
	}
	return *area, nil
}

func (s *Service) ListAreas(ctx context.Context) ([]domain.CommonArea, error) {
	items, err := s.repo.ListAreas(ctx, s.db)
	if err != nil {
		return nil, err
	}
	areas := make([]domain.CommonArea, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		areas = append(areas, *item)
	}
	return areas, nil
}

func (s *Service) UpdateArea(ctx context.Context, req domain.UpdateAreaRequest) (domain.CommonArea, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || parsed == 0 {
		return domain.CommonArea{}, domain.ErrInvalidID
	}
	area, err := s.repo.FindAreaByID(ctx, s.db, int64(parsed))
	if err != nil {
		return domain.CommonArea{}, err
	}
	if area == nil {
		return domain.CommonArea{}, domain.ErrAreaNotFound
	}

	if req.Description != nil {
		area.Description = strings.TrimSpace(*req.Description)
	}
	if req.Capacity != nil {
		if *req.Capacity <= 0 {
			return domain.CommonArea{}, domain.ErrInvalidCapacity
		}
		area.Capacity = *req.Capacity
	}
	if req.CostPerHourCents != nil {
		area.CostPerHourCents = *req.CostPerHourCents
	}
	if req.IsReservable != nil {
		area.IsReservable = *req.IsReservable
	}
	if req.IsActive != nil {
		area.IsActive = *req.IsActive
	}
	if req.AvailableFrom != nil {
		if _, ok := parseClock(*req.AvailableFrom); !ok {
			return domain.CommonArea{}, domain.ErrInvalidTimeWindow
		}
		area.AvailableFrom = *req.AvailableFrom
	}
	if req.AvailableTo != nil {
		if _, ok := parseClock(*req.AvailableTo); !ok {
			return domain.CommonArea{}, domain.ErrInvalidTimeWindow
		}
		area.AvailableTo = *req.AvailableTo
	}

	if err := s.repo.UpdateArea(ctx, s.db, area, s.clock.Now()); err != nil {
		return domain.CommonArea{}, err
	}
	return *area, nil
}

func (s *Service) CreateGeneralRule(ctx context.Context, req domain.CreateRuleRequest) (domain.GeneralRule, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.GeneralRule{}, domain.ErrInvalidTitle
	}
	createdBy, err := snowflake.ParseString(strings.TrimSpace(req.CreatedByID))
	if err != nil || createdBy == 0 {
		return domain.GeneralRule{}, domain.ErrInvalidID
	}

	now := s.clock.Now()
	rule := domain.GeneralRule{
		ID:          s.genID.Generate(),
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		IsActive:    true,
		CreatedByID: createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.InsertGeneralRule(ctx, s.db, &rule); err != nil {
		return domain.GeneralRule{}, err
	}
	return rule, nil
}

func (s *Service) CreateAreaRule(ctx context.Context, req domain.CreateRuleRequest) (domain.AreaRule, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.AreaRule{}, domain.ErrInvalidTitle
	}
	areaID, err := snowflake.ParseString(strings.TrimSpace(req.CommonAreaID))
	if err != nil || areaID == 0 {
		return domain.AreaRule{}, domain.ErrInvalidID
	}
	createdBy, err := snowflake.ParseString(strings.TrimSpace(req.CreatedByID))
	if err != nil || createdBy == 0 {
		return domain.AreaRule{}, domain.ErrInvalidID
	}

	area, err := s.repo.FindAreaByID(ctx, s.db, int64(areaID))
	if err != nil {
		return domain.AreaRule{}, err
	}
	if area == nil {
		return domain.AreaRule{}, domain.ErrAreaNotFound
	}

	now := s.clock.Now()
	rule := domain.AreaRule{
		ID:           s.genID.Generate(),
		CommonAreaID: areaID,
		Title:        title,
		Description:  strings.TrimSpace(req.Description),
		IsActive:     true,
		CreatedByID:  createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.InsertAreaRule(ctx, s.db, &rule); err != nil {
		return domain.AreaRule{}, err
	}
	return rule, nil
}

func (s *Service) ListGeneralRules(ctx context.Context) ([]domain.GeneralRule, error) {
	items, err := s.repo.ListGeneralRules(ctx, s.db)
	if err != nil {
		return nil, err
	}
	rules := make([]domain.GeneralRule, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		rules = append(rules, *item)
	}
	return rules, nil
}

func (s *Service) ListAreaRules(ctx context.Context, areaID string) ([]domain.AreaRule, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(areaID))
	if err != nil || parsed == 0 {
		return nil, domain.ErrInvalidID
	}
	items, err := s.repo.ListAreaRules(ctx, s.db, int64(parsed))
	if err != nil {
		return nil, err
	}
	rules := make([]domain.AreaRule, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		rules = append(rules, *item)
	}
	return rules, nil
}

func (s *Service) RequestReservation(ctx context.Context, req domain.RequestReservationRequest) (domain.Reservation, error) {
	areaID, err := snowflake.ParseString(strings.TrimSpace(req.CommonAreaID))
	if err != nil || areaID == 0 {
		return domain.Reservation{}, domain.ErrInvalidID
	}
	userID, err := snowflake.ParseString(strings.TrimSpace(req.UserID))
	if err != nil || userID == 0 {
		return domain.Reservation{}, domain.ErrInvalidID
	}
	if req.ReservationDate.IsZero() {
		return domain.Reservation{}, domain.ErrInvalidTimeWindow
	}

	startMin, ok := parseClock(req.StartTime)
	if !ok {
		return domain.Reservation{}, domain.ErrInvalidTimeWindow
	}
	endMin, ok := parseClock(req.EndTime)
	if !ok {
		return domain.Reservation{}, domain.ErrInvalidTimeWindow
	}

	area, err := s.repo.FindAreaByID(ctx, s.db, int64(areaID))
	if err != nil {
		return domain.Reservation{}, err
	}
	if area == nil {
		return domain.Reservation{}, domain.ErrAreaNotFound
	}
	if !area.IsActive || !area.IsReservable {
		return domain.Reservation{}, domain.ErrAreaNotReservable
	}

	date := time.Date(
		req.ReservationDate.Year(), req.ReservationDate.Month(), req.ReservationDate.Day(),
		0, 0, 0, 0, time.UTC,
	)
	if !area.AvailableOn(date.Weekday()) {
		return domain.Reservation{}, domain.ErrAreaClosed
	}

	openMin, _ := parseClock(area.AvailableFrom)
	closeMin, _ := parseClock(area.AvailableTo)
	overnight := endMin <= startMin
	if startMin < openMin || (!overnight && endMin > closeMin) {
		return domain.Reservation{}, domain.ErrAreaClosed
	}

	checkEnd := req.EndTime
	if overnight {
		checkEnd = "24:00" // overnight slot blocks the rest of the day
	}
	conflict, err := s.repo.FindOverlapping(ctx, s.db, int64(areaID), date, req.StartTime, checkEnd)
	if err != nil {
		return domain.Reservation{}, err
	}
	if conflict != nil {
		return domain.Reservation{}, domain.ErrSlotTaken
	}

	minutes := slotMinutes(startMin, endMin)
	attendees := req.EstimatedAttendees
	if attendees <= 0 {
		attendees = 1
	}

	now := s.clock.Now()
	reservation := domain.Reservation{
		ID:                 s.genID.Generate(),
		CommonAreaID:       areaID,
		UserID:             userID,
		ReservationDate:    date,
		StartTime:          strings.TrimSpace(req.StartTime),
		EndTime:            strings.TrimSpace(req.EndTime),
		Purpose:            strings.TrimSpace(req.Purpose),
		EstimatedAttendees: attendees,
		Status:             domain.ReservationPending,
		TotalMinutes:       minutes,
		TotalCostCents:     costCents(area.CostPerHourCents, minutes),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.InsertReservation(ctx, s.db, &reservation); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Reservation{}, domain.ErrSlotTaken
		}
		return domain.Reservation{}, err
	}

	s.log.Info("reservation requested",
		zap.String("reservation_id", reservation.ID.String()),
		zap.String("area_id", areaID.String()),
		zap.Int64("cost_cents", reservation.TotalCostCents),
	)
	return reservation, nil
}

func (s *Service) Approve(ctx context.Context, req domain.ResolveReservationRequest) (domain.Reservation, error) {
	reservation, err := s.GetReservation(ctx, req.ReservationID)
	if err != nil {
		return domain.Reservation{}, err
	}
	if reservation.Status != domain.ReservationPending {
		return domain.Reservation{}, domain.ErrNotPending
	}
	approvedBy, err := snowflake.ParseString(strings.TrimSpace(req.ApprovedByID))
	if err != nil || approvedBy == 0 {
		return domain.Reservation{}, domain.ErrInvalidID
	}

	area, err := s.repo.FindAreaByID(ctx, s.db, int64(reservation.CommonAreaID))
	if err != nil {
		return domain.Reservation{}, err
	}
	if area == nil {
		return domain.Reservation{}, domain.ErrAreaNotFound
	}

	reservation.Status = domain.ReservationApproved
	reservation.ApprovedByID = &approvedBy
	reservation.AdminNotes = strings.TrimSpace(req.AdminNotes)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.UpdateReservation(ctx, tx, &reservation, s.clock.Now()); err != nil {
			return err
		}
		if reservation.TotalCostCents <= 0 {
			return nil
		}

		template := s.billing.Get().ReservationTemplate
		description := strings.NewReplacer(
			"{area}", area.Name,
			"{date}", reservation.ReservationDate.Format("2006-01-02"),
		).Replace(template)

		now := s.clock.Now()
		charge := domain.ReservationCharge{
			ID:            s.genID.Generate(),
			ReservationID: reservation.ID,
			UserID:        reservation.UserID,
			AmountCents:   reservation.TotalCostCents,
			Description:   description,
			DueDate:       reservation.ReservationDate,
			Status:        domain.ChargePending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.repo.InsertCharge(ctx, tx, &charge); err != nil {
			// the reservation was already billed by a previous approval attempt
			if db.IsDuplicateKeyErr(err) {
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}

	s.log.Info("reservation approved",
		zap.String("reservation_id", reservation.ID.String()),
		zap.String("approved_by", approvedBy.String()),
	)
	return reservation, nil
}

func (s *Service) Reject(ctx context.Context, req domain.ResolveReservationRequest) (domain.Reservation, error) {
	reservation, err := s.GetReservation(ctx, req.ReservationID)
	if err != nil {
		return domain.Reservation{}, err
	}
	if reservation.Status != domain.ReservationPending {
		return domain.Reservation{}, domain.ErrNotPending
	}
	approvedBy, err := snowflake.ParseString(strings.TrimSpace(req.ApprovedByID))
	if err != nil || approvedBy == 0 {
		return domain.Reservation{}, domain.ErrInvalidID
	}

	reservation.Status = domain.ReservationRejected
	reservation.ApprovedByID = &approvedBy
	reservation.AdminNotes = strings.TrimSpace(req.AdminNotes)
	if err := s.repo.UpdateReservation(ctx, s.db, &reservation, s.clock.Now()); err != nil {
		return domain.Reservation{}, err
	}
	return reservation, nil
}

func (s *Service) CancelReservation(ctx context.Context, reservationID, requesterID string) (domain.Reservation, error) {
	reservation, err := s.GetReservation(ctx, reservationID)
	if err != nil {
		return domain.Reservation{}, err
	}
	if reservation.UserID.String() != strings.TrimSpace(requesterID) {
		return domain.Reservation{}, domain.ErrNotRequester
	}
	switch reservation.Status {
	case domain.ReservationPending, domain.ReservationApproved:
	default:
		return domain.Reservation{}, domain.ErrNotCancellable
	}

	reservation.Status = domain.ReservationCancelled
	if err := s.repo.UpdateReservation(ctx, s.db, &reservation, s.clock.Now()); err != nil {
		return domain.Reservation{}, err
	}
	return reservation, nil
}

func (s *Service) CompletePast(ctx context.Context, now time.Time) (int64, error) {
	if now.IsZero() {
		now = s.clock.Now()
	}
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	count, err := s.repo.CompleteElapsed(ctx, s.db, cutoff, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.log.Info("reservations completed", zap.Int64("count", count))
	}
	return count, nil
}

func (s *Service) GetReservation(ctx context.Context, id string) (domain.Reservation, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return domain.Reservation{}, domain.ErrInvalidID
	}
	reservation, err := s.repo.FindReservationByID(ctx, s.db, int64(parsed))
	if err != nil {
		return domain.Reservation{}, err
	}
	if reservation == nil {
		return domain.Reservation{}, domain.ErrNotFound
	}
	return *reservation, nil
}

func (s *Service) ListReservations(ctx context.Context, req domain.ListReservationRequest) (domain.ListReservationResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	req.PageSize = pageSize

	items, err := s.repo.ListReservations(ctx, s.db, req)
	if err != nil {
		return domain.ListReservationResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(reservation *domain.Reservation) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        reservation.ID.String(),
			CreatedAt: reservation.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	reservations := make([]domain.Reservation, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		reservations = append(reservations, *item)
	}

	resp := domain.ListReservationResponse{Reservations: reservations}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) MarkChargePaid(ctx context.Context, req domain.MarkChargePaidRequest) (domain.ReservationCharge, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(req.ChargeID))
	if err != nil || parsed == 0 {
		return domain.ReservationCharge{}, domain.ErrInvalidID
	}
	charge, err := s.repo.FindChargeByID(ctx, s.db, int64(parsed))
	if err != nil {
		return domain.ReservationCharge{}, err
	}
	if charge == nil {
		return domain.ReservationCharge{}, domain.ErrChargeNotFound
	}
	if charge.Status == domain.ChargePaid {
		return domain.ReservationCharge{}, domain.ErrChargeAlreadyPaid
	}

	paidDate := s.clock.Now()
	if req.PaidDate != nil {
		paidDate = *req.PaidDate
	}
	charge.Status = domain.ChargePaid
	charge.PaidDate = &paidDate
	charge.PaymentReference = strings.TrimSpace(req.Reference)
	if err := s.repo.UpdateCharge(ctx, s.db, charge, s.clock.Now()); err != nil {
		return domain.ReservationCharge{}, err
	}

	s.log.Info("reservation charge paid",
		zap.String("charge_id", charge.ID.String()),
		zap.String("reference", charge.PaymentReference),
	)
	return *charge, nil
}

func (s *Service) ListChargesByUser(ctx context.Context, userID string) ([]domain.ReservationCharge, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(userID))
	if err != nil || parsed == 0 {
		return nil, domain.ErrInvalidID
	}
	items, err := s.repo.ListChargesByUser(ctx, s.db, int64(parsed))
	if err != nil {
		return nil, err
	}
	charges := make([]domain.ReservationCharge, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		charges = append(charges, *item)
	}
	return charges, nil
}
