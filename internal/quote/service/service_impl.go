// Package service implements the quote generation engine: idempotent
// per-period creation, the overdue sweep, payment confirmation and the
// per-status summary. The application-level existence checks are an
// optimization; the unique index on (residency_id, period_year,
// period_month) is what actually guarantees one quote per period.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smartcondo/condominio/internal/clock"
	"github.com/smartcondo/condominio/internal/config"
	"github.com/smartcondo/condominio/internal/quote/domain"
	residencydomain "github.com/smartcondo/condominio/internal/residency/domain"
	unitdomain "github.com/smartcondo/condominio/internal/unit/domain"
	userdomain "github.com/smartcondo/condominio/internal/user/domain"
	"github.com/smartcondo/condominio/pkg/db"
	"github.com/smartcondo/condominio/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var monthNames = [13]string{
	"", "Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Billing       *config.BillingConfigHolder
	Repo          domain.Repository
	ResidencyRepo residencydomain.Repository
	UnitRepo      unitdomain.Repository
	UserRepo      userdomain.Repository
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	billing       *config.BillingConfigHolder
	repo          domain.Repository
	residencyRepo residencydomain.Repository
	unitRepo      unitdomain.Repository
	userRepo      userdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("quote.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		billing:       p.Billing,
		repo:          p.Repo,
		residencyRepo: p.ResidencyRepo,
		unitRepo:      p.UnitRepo,
		userRepo:      p.UserRepo,
	}
}

// lastDayOfMonth is calendar-aware: day 0 of the next month.
func lastDayOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
}

func renderDescription(template string, repl map[string]string) string {
	out := template
	for key, value := range repl {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out
}

func (s *Service) GenerateForResidency(ctx context.Context, req domain.GenerateRequest) ([]domain.Quote, error) {
	quotes, _, err := s.generate(ctx, req, nil)
	return quotes, err
}

// generate is the shared cadence fork. It returns every quote covering
// the requested span (including pre-existing annual quotes) plus how
// many of them were created by this call.
func (s *Service) generate(ctx context.Context, req domain.GenerateRequest, methodID *snowflake.ID) ([]domain.Quote, int, error) {
	residencyID, err := snowflake.ParseString(strings.TrimSpace(req.ResidencyID))
	if err != nil || residencyID == 0 {
		return nil, 0, domain.ErrInvalidID
	}
	if req.Year < 2000 || req.Year > 2100 {
		return nil, 0, domain.ErrInvalidYear
	}

	billing := s.billing.Get()
	startMonth := req.StartMonth
	if startMonth == 0 {
		startMonth = billing.DefaultStartMonth
	}
	endMonth := req.EndMonth
	if endMonth == 0 {
		endMonth = billing.DefaultEndMonth
	}
	if startMonth < 1 || endMonth > 12 || startMonth > endMonth {
		return nil, 0, domain.ErrInvalidMonthRange
	}

	residency, err := s.residencyRepo.FindByID(ctx, s.db, int64(residencyID))
	if err != nil {
		return nil, 0, err
	}
	if residency == nil {
		return nil, 0, domain.ErrResidencyNotFound
	}
	unit, err := s.unitRepo.FindByID(ctx, s.db, int64(residency.UnitID))
	if err != nil {
		return nil, 0, err
	}
	if unit == nil {
		return nil, 0, domain.ErrResidencyNotFound
	}
	residency.Unit = unit

	amount := residency.AmountCents()
	if req.BaseAmountCents != nil {
		amount = *req.BaseAmountCents
	}
	if amount <= 0 {
		return nil, 0, domain.ErrInvalidAmount
	}

	var (
		quotes  []domain.Quote
		created int
	)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		switch residency.Kind {
		case residencydomain.KindOwner:
			quotes, created, err = s.generateAnnual(ctx, tx, residency, methodID, req, amount, billing)
		case residencydomain.KindTenant:
			quotes, created, err = s.generateMonthly(ctx, tx, residency, methodID, req, amount, startMonth, endMonth, billing)
		default:
			err = residencydomain.ErrInvalidKind
		}
		return err
	})
	if err != nil {
		return nil, 0, err
	}

	if created > 0 {
		s.log.Info("quotes generated",
			zap.String("residency_id", residencyID.String()),
			zap.Int("year", req.Year),
			zap.Int("created", created),
		)
	}
	return quotes, created, nil
}

// generateAnnual covers the owner cadence: one quote per year, due on
// the year's last day. An already-billed year returns the existing
// quote untouched.
func (s *Service) generateAnnual(
	ctx context.Context,
	tx *gorm.DB,
	residency *residencydomain.Residency,
	methodID *snowflake.ID,
	req domain.GenerateRequest,
	amount int64,
	billing config.BillingConfig,
) ([]domain.Quote, int, error) {
	existing, err := s.repo.FindForPeriod(ctx, tx, int64(residency.ID), req.Year, nil)
	if err != nil {
		return nil, 0, err
	}
	if existing != nil {
		return []domain.Quote{*existing}, 0, nil
	}

	template := req.DescriptionTemplate
	if template == "" {
		template = billing.AnnualTemplate
	}
	description := renderDescription(template, map[string]string{
		"year": fmt.Sprintf("%d", req.Year),
		"unit": residency.Unit.Code,
	})

	now := s.clock.Now()
	quote := domain.Quote{
		ID:              s.genID.Generate(),
		ResidencyID:     residency.ID,
		PaymentMethodID: methodID,
		AmountCents:     amount,
		Description:     description,
		DueDate:         time.Date(req.Year, time.December, 31, 0, 0, 0, 0, time.UTC),
		Status:          domain.StatusPending,
		PeriodYear:      req.Year,
		IsAutomatic:     true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Insert(ctx, tx, &quote); err != nil {
		// a concurrent caller beat us past the existence check
		if db.IsDuplicateKeyErr(err) {
			existing, ferr := s.repo.FindForPeriod(ctx, tx, int64(residency.ID), req.Year, nil)
			if ferr != nil {
				return nil, 0, ferr
			}
			if existing != nil {
				return []domain.Quote{*existing}, 0, nil
			}
		}
		return nil, 0, err
	}
	return []domain.Quote{quote}, 1, nil
}

// generateMonthly covers the tenant cadence: one quote per month of the
// inclusive range, each due on its month's last calendar day. Months
// already billed are skipped; only new quotes are returned.
func (s *Service) generateMonthly(
	ctx context.Context,
	tx *gorm.DB,
	residency *residencydomain.Residency,
	methodID *snowflake.ID,
	req domain.GenerateRequest,
	amount int64,
	startMonth, endMonth int,
	billing config.BillingConfig,
) ([]domain.Quote, int, error) {
	template := req.DescriptionTemplate
	if template == "" {
		template = billing.MonthlyTemplate
	}

	var quotes []domain.Quote
	for month := startMonth; month <= endMonth; month++ {
		existing, err := s.repo.FindForPeriod(ctx, tx, int64(residency.ID), req.Year, &month)
		if err != nil {
			return nil, 0, err
		}
		if existing != nil {
			continue
		}

		description := renderDescription(template, map[string]string{
			"month": monthNames[month],
			"year":  fmt.Sprintf("%d", req.Year),
			"unit":  residency.Unit.Code,
		})

		periodMonth := month
		now := s.clock.Now()
		quote := domain.Quote{
			ID:              s.genID.Generate(),
			ResidencyID:     residency.ID,
			PaymentMethodID: methodID,
			AmountCents:     amount,
			Description:     description,
			DueDate:         lastDayOfMonth(req.Year, time.Month(month)),
			Status:          domain.StatusPending,
			PeriodMonth:     &periodMonth,
			PeriodYear:      req.Year,
			IsAutomatic:     true,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.repo.Insert(ctx, tx, &quote); err != nil {
			if db.IsDuplicateKeyErr(err) {
				continue
			}
			return nil, 0, err
		}
		quotes = append(quotes, quote)
	}
	return quotes, len(quotes), nil
}

func (s *Service) GenerateForAllActive(ctx context.Context, req domain.GenerateAllRequest) (domain.GenerationReport, error) {
	if req.Year < 2000 || req.Year > 2100 {
		return domain.GenerationReport{}, domain.ErrInvalidYear
	}

	var methodID *snowflake.ID
	if strings.TrimSpace(req.PaymentMethodID) != "" {
		parsed, err := snowflake.ParseString(strings.TrimSpace(req.PaymentMethodID))
		if err != nil || parsed == 0 {
			return domain.GenerationReport{}, domain.ErrInvalidID
		}
		method, err := s.repo.FindPaymentMethodByID(ctx, s.db, int64(parsed))
		if err != nil {
			return domain.GenerationReport{}, err
		}
		if method == nil {
			return domain.GenerationReport{}, domain.ErrPaymentMethodNotFound
		}
		methodID = &parsed
	}

	residencies, err := s.residencyRepo.ListActive(ctx, s.db)
	if err != nil {
		return domain.GenerationReport{}, err
	}

	report := domain.GenerationReport{Errors: []domain.GenerationError{}}
	for _, residency := range residencies {
		unit, err := s.unitRepo.FindByID(ctx, s.db, int64(residency.UnitID))
		if err != nil {
			report.Errors = append(report.Errors, s.batchError(ctx, residency, "", err))
			continue
		}
		if unit == nil || !unit.IsActive {
			continue
		}
		report.TotalResidencies++

		_, created, err := s.generate(ctx, domain.GenerateRequest{
			ResidencyID: residency.ID.String(),
			Year:        req.Year,
			StartMonth:  req.StartMonth,
			EndMonth:    req.EndMonth,
		}, methodID)
		if err != nil {
			report.Errors = append(report.Errors, s.batchError(ctx, residency, unit.Code, err))
			continue
		}

		report.QuotesCreated += created
		if residency.Kind == residencydomain.KindOwner {
			report.OwnersProcessed++
		} else {
			report.TenantsProcessed++
		}
	}

	s.log.Info("batch generation finished",
		zap.Int("year", req.Year),
		zap.Int("residencies", report.TotalResidencies),
		zap.Int("created", report.QuotesCreated),
		zap.Int("errors", len(report.Errors)),
	)
	return report, nil
}

func (s *Service) batchError(ctx context.Context, residency *residencydomain.Residency, unitCode string, err error) domain.GenerationError {
	entry := domain.GenerationError{
		ResidencyID: residency.ID.String(),
		UnitCode:    unitCode,
		Error:       err.Error(),
	}
	if user, uerr := s.userRepo.FindByID(ctx, s.db, int64(residency.UserID)); uerr == nil && user != nil {
		entry.UserName = user.FullName()
	}
	return entry
}

func (s *Service) SweepOverdue(ctx context.Context, today time.Time) (int64, error) {
	if today.IsZero() {
		today = s.clock.Now()
	}
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	count, err := s.repo.MarkOverdue(ctx, s.db, today, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.log.Info("overdue sweep", zap.Int64("transitioned", count))
	}
	return count, nil
}

func (s *Service) Summarize(ctx context.Context, req domain.SummaryRequest) (domain.Summary, error) {
	year := req.Year
	if year == 0 {
		year = s.clock.Now().Year()
	}

	var residencyID int64
	summary := domain.Summary{Year: year}
	if strings.TrimSpace(req.ResidencyID) != "" {
		parsed, err := snowflake.ParseString(strings.TrimSpace(req.ResidencyID))
		if err != nil || parsed == 0 {
			return domain.Summary{}, domain.ErrInvalidID
		}
		residencyID = int64(parsed)

		residency, err := s.residencyRepo.FindByID(ctx, s.db, residencyID)
		if err != nil {
			return domain.Summary{}, err
		}
		if residency == nil {
			return domain.Summary{}, domain.ErrResidencyNotFound
		}
		if unit, err := s.unitRepo.FindByID(ctx, s.db, int64(residency.UnitID)); err == nil && unit != nil {
			summary.UnitCode = unit.Code
		}
		if user, err := s.userRepo.FindByID(ctx, s.db, int64(residency.UserID)); err == nil && user != nil {
			summary.UserName = user.FullName()
		}
	}

	buckets, err := s.repo.Aggregate(ctx, s.db, residencyID, year)
	if err != nil {
		return domain.Summary{}, err
	}
	for _, bucket := range buckets {
		summary.TotalQuotes += bucket.Count
		summary.TotalAmountCents += bucket.Sum
		switch bucket.Status {
		case domain.StatusPending:
			summary.PendingQuotes = bucket.Count
			summary.PendingAmountCents = bucket.Sum
		case domain.StatusPaid:
			summary.PaidQuotes = bucket.Count
			summary.PaidAmountCents = bucket.Sum
		case domain.StatusOverdue:
			summary.OverdueQuotes = bucket.Count
			summary.OverdueAmountCents = bucket.Sum
		case domain.StatusCancelled:
			summary.CancelledQuotes = bucket.Count
			summary.CancelledAmountCents = bucket.Sum
		}
	}
	return summary, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateQuoteRequest) (domain.Quote, error) {
	residencyID, err := snowflake.ParseString(strings.TrimSpace(req.ResidencyID))
	if err != nil || residencyID == 0 {
		return domain.Quote{}, domain.ErrInvalidID
	}
	if req.AmountCents <= 0 {
		return domain.Quote{}, domain.ErrInvalidAmount
	}
	if req.DueDate.IsZero() {
		return domain.Quote{}, domain.ErrInvalidDueDate
	}
	if req.PeriodYear < 2000 || req.PeriodYear > 2100 {
		return domain.Quote{}, domain.ErrInvalidYear
	}
	if req.PeriodMonth != nil && (*req.PeriodMonth < 1 || *req.PeriodMonth > 12) {
		return domain.Quote{}, domain.ErrInvalidMonthRange
	}

	residency, err := s.residencyRepo.FindByID(ctx, s.db, int64(residencyID))
	if err != nil {
		return domain.Quote{}, err
	}
	if residency == nil {
		return domain.Quote{}, domain.ErrResidencyNotFound
	}

	now := s.clock.Now()
	quote := domain.Quote{
		ID:          s.genID.Generate(),
		ResidencyID: residencyID,
		AmountCents: req.AmountCents,
		Description: strings.TrimSpace(req.Description),
		DueDate:     req.DueDate,
		Status:      domain.StatusPending,
		PeriodMonth: req.PeriodMonth,
		PeriodYear:  req.PeriodYear,
		IsAutomatic: false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, s.db, &quote); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Quote{}, domain.ErrPeriodAlreadyBilled
		}
		return domain.Quote{}, err
	}
	return quote, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Quote, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return domain.Quote{}, domain.ErrInvalidID
	}

	quote, err := s.repo.FindByID(ctx, s.db, int64(parsed))
	if err != nil {
		return domain.Quote{}, err
	}
	if quote == nil {
		return domain.Quote{}, domain.ErrNotFound
	}
	return *quote, nil
}

func (s *Service) List(ctx context.Context, req domain.ListQuoteRequest) (domain.ListQuoteResponse, error) {
	if req.Status != "" && !req.Status.Valid() {
		return domain.ListQuoteResponse{}, domain.ErrInvalidID
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	req.PageSize = pageSize

	items, err := s.repo.List(ctx, s.db, req)
	if err != nil {
		return domain.ListQuoteResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(quote *domain.Quote) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        quote.ID.String(),
			CreatedAt: quote.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	quotes := make([]domain.Quote, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		quotes = append(quotes, *item)
	}

	resp := domain.ListQuoteResponse{Quotes: quotes}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

// MarkPaid is the one-way payment transition. Paying a paid quote is a
// hard error so duplicate webhook deliveries surface instead of
// silently rewriting payment data.
func (s *Service) MarkPaid(ctx context.Context, req domain.MarkPaidRequest) (domain.Quote, error) {
	quote, err := s.GetByID(ctx, req.QuoteID)
	if err != nil {
		return domain.Quote{}, err
	}
	if quote.Status == domain.StatusPaid {
		return domain.Quote{}, domain.ErrAlreadyPaid
	}
	if quote.Status == domain.StatusCancelled {
		return domain.Quote{}, domain.ErrQuoteCancelled
	}

	// Manual payments name a payment method; gateway confirmations do
	// not, the reference alone identifies them.
	methodName := "gateway"
	if trimmed := strings.TrimSpace(req.PaymentMethodID); trimmed != "" {
		methodID, err := snowflake.ParseString(trimmed)
		if err != nil || methodID == 0 {
			return domain.Quote{}, domain.ErrInvalidID
		}
		method, err := s.repo.FindPaymentMethodByID(ctx, s.db, int64(methodID))
		if err != nil {
			return domain.Quote{}, err
		}
		if method == nil {
			return domain.Quote{}, domain.ErrPaymentMethodNotFound
		}
		quote.PaymentMethodID = &methodID
		methodName = method.Name
	}

	paidDate := s.clock.Now()
	if req.PaidDate != nil {
		paidDate = *req.PaidDate
	}

	quote.Status = domain.StatusPaid
	quote.PaymentReference = strings.TrimSpace(req.Reference)
	quote.PaidDate = &paidDate
	quote.PaymentData = datatypes.JSONMap{
		"reference":    quote.PaymentReference,
		"method":       methodName,
		"confirmed_at": paidDate.Format(time.RFC3339),
	}

	if err := s.repo.Update(ctx, s.db, &quote, s.clock.Now()); err != nil {
		return domain.Quote{}, err
	}

	s.log.Info("quote paid",
		zap.String("quote_id", quote.ID.String()),
		zap.String("reference", quote.PaymentReference),
	)
	return quote, nil
}

func (s *Service) Cancel(ctx context.Context, id string) (domain.Quote, error) {
	quote, err := s.GetByID(ctx, id)
	if err != nil {
		return domain.Quote{}, err
	}
	if quote.Status == domain.StatusPaid {
		return domain.Quote{}, domain.ErrNotCancellable
	}
	if quote.Status == domain.StatusCancelled {
		return quote, nil
	}

	quote.Status = domain.StatusCancelled
	if err := s.repo.Update(ctx, s.db, &quote, s.clock.Now()); err != nil {
		return domain.Quote{}, err
	}
	s.log.Info("quote cancelled", zap.String("quote_id", quote.ID.String()))
	return quote, nil
}

func (s *Service) CreatePaymentMethod(ctx context.Context, req domain.CreatePaymentMethodRequest) (domain.PaymentMethod, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.PaymentMethod{}, domain.ErrInvalidName
	}

	now := s.clock.Now()
	method := domain.PaymentMethod{
		ID:                 s.genID.Generate(),
		Name:               name,
		Description:        strings.TrimSpace(req.Description),
		RequiresGateway:    req.RequiresGateway,
		ManualVerification: req.ManualVerification,
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.InsertPaymentMethod(ctx, s.db, &method); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.PaymentMethod{}, domain.ErrPaymentMethodTaken
		}
		return domain.PaymentMethod{}, err
	}
	return method, nil
}

func (s *Service) ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	items, err := s.repo.ListPaymentMethods(ctx, s.db)
	if err != nil {
		return nil, err
	}
	methods := make([]domain.PaymentMethod, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		methods = append(methods, *item)
	}
	return methods, nil
}

func (s *Service) DeletePaymentMethod(ctx context.Context, id string) error {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return domain.ErrInvalidID
	}

	method, err := s.repo.FindPaymentMethodByID(ctx, s.db, int64(parsed))
	if err != nil {
		return err
	}
	if method == nil {
		return domain.ErrPaymentMethodNotFound
	}

	outstanding, err := s.repo.CountOutstandingByPaymentMethod(ctx, s.db, int64(parsed))
	if err != nil {
		return err
	}
	if outstanding > 0 {
		return domain.ErrPaymentMethodInUse
	}

	return s.repo.DeletePaymentMethod(ctx, s.db, int64(parsed))
}
