package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smartcondo/condominio/internal/clock"
	"github.com/smartcondo/condominio/internal/residency/domain"
	unitdomain "github.com/smartcondo/condominio/internal/unit/domain"
	userdomain "github.com/smartcondo/condominio/internal/user/domain"
	"github.com/smartcondo/condominio/pkg/db"
	"github.com/smartcondo/condominio/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	UnitRepo unitdomain.Repository
	UserRepo userdomain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	unitRepo unitdomain.Repository
	userRepo userdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("residency.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		unitRepo: p.UnitRepo,
		userRepo: p.UserRepo,
	}
}

// kindAllowsRole keeps occupancy coherent with the account's role:
// owners hold OWNER residencies, residents hold TENANT ones.
// Administrators may hold either, they run the place.
func kindAllowsRole(kind domain.Kind, role userdomain.Role) bool {
	switch kind {
	case domain.KindOwner:
		return role == userdomain.RoleOwner || role == userdomain.RoleAdministrator
	case domain.KindTenant:
		return role == userdomain.RoleResident || role == userdomain.RoleAdministrator
	}
	return false
}

func (s *Service) Create(ctx context.Context, req domain.CreateResidencyRequest) (domain.Residency, error) {
	if !req.Kind.Valid() {
		return domain.Residency{}, domain.ErrInvalidKind
	}
	unitID, err := snowflake.ParseString(strings.TrimSpace(req.UnitID))
	if err != nil || unitID == 0 {
		return domain.Residency{}, domain.ErrInvalidID
	}
	userID, err := snowflake.ParseString(strings.TrimSpace(req.UserID))
	if err != nil || userID == 0 {
		return domain.Residency{}, domain.ErrInvalidID
	}
	if req.StartDate.IsZero() {
		return domain.Residency{}, domain.ErrInvalidDates
	}
	if req.EndDate != nil && !req.EndDate.After(req.StartDate) {
		return domain.Residency{}, domain.ErrInvalidDates
	}
	if req.ResponsibilityCents != nil && *req.ResponsibilityCents <= 0 {
		return domain.Residency{}, domain.ErrInvalidAmount
	}
	// Only the principal carries a responsibility override; the rest
	// of the unit bills from the base price.
	if req.ResponsibilityCents != nil && !req.IsPrincipal {
		return domain.Residency{}, domain.ErrNotPrincipal
	}

	unit, err := s.unitRepo.FindByID(ctx, s.db, int64(unitID))
	if err != nil {
		return domain.Residency{}, err
	}
	if unit == nil {
		return domain.Residency{}, domain.ErrUnitNotFound
	}

	user, err := s.userRepo.FindByID(ctx, s.db, int64(userID))
	if err != nil {
		return domain.Residency{}, err
	}
	if user == nil {
		return domain.Residency{}, domain.ErrUserNotFound
	}
	if !kindAllowsRole(req.Kind, user.Role) {
		return domain.Residency{}, domain.ErrKindRoleMismatch
	}

	// A unit is either owner-occupied or rented, never both at once.
	existing, err := s.repo.List(ctx, s.db, domain.ListResidencyRequest{UnitID: unitID.String()})
	if err != nil {
		return domain.Residency{}, err
	}
	for _, other := range existing {
		if other != nil && other.Kind != req.Kind {
			return domain.Residency{}, domain.ErrKindConflict
		}
	}

	if req.IsPrincipal {
		principal, err := s.repo.FindPrincipalByUnit(ctx, s.db, int64(unitID))
		if err != nil {
			return domain.Residency{}, err
		}
		if principal != nil {
			return domain.Residency{}, domain.ErrPrincipalTaken
		}
	}

	now := s.clock.Now()
	residency := domain.Residency{
		ID:                  s.genID.Generate(),
		UnitID:              unitID,
		UserID:              userID,
		Kind:                req.Kind,
		IsPrincipal:         req.IsPrincipal,
		ResponsibilityCents: req.ResponsibilityCents,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		IsActive:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.repo.Insert(ctx, s.db, &residency); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Residency{}, domain.ErrAlreadyResident
		}
		return domain.Residency{}, err
	}

	s.log.Info("residency created",
		zap.String("residency_id", residency.ID.String()),
		zap.String("unit_id", unitID.String()),
		zap.String("user_id", userID.String()),
		zap.String("kind", string(req.Kind)),
	)
	residency.Unit = unit
	residency.User = user
	return residency, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Residency, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return domain.Residency{}, domain.ErrInvalidID
	}

	residency, err := s.repo.FindByID(ctx, s.db, int64(parsed))
	if err != nil {
		return domain.Residency{}, err
	}
	if residency == nil {
		return domain.Residency{}, domain.ErrNotFound
	}
	return *residency, nil
}

func (s *Service) List(ctx context.Context, req domain.ListResidencyRequest) (domain.ListResidencyResponse, error) {
	if req.Kind != "" && !req.Kind.Valid() {
		return domain.ListResidencyResponse{}, domain.ErrInvalidKind
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	req.PageSize = pageSize

	items, err := s.repo.List(ctx, s.db, req)
	if err != nil {
		return domain.ListResidencyResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(residency *domain.Residency) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        residency.ID.String(),
			CreatedAt: residency.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	residencies := make([]domain.Residency, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		residencies = append(residencies, *item)
	}

	resp := domain.ListResidencyResponse{Residencies: residencies}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateResidencyRequest) (domain.Residency, error) {
	residency, err := s.GetByID(ctx, req.ID)
	if err != nil {
		return domain.Residency{}, err
	}

	if req.IsPrincipal != nil && *req.IsPrincipal && !residency.IsPrincipal {
		principal, err := s.repo.FindPrincipalByUnit(ctx, s.db, int64(residency.UnitID))
		if err != nil {
			return domain.Residency{}, err
		}
		if principal != nil && principal.ID != residency.ID {
			return domain.Residency{}, domain.ErrPrincipalTaken
		}
		residency.IsPrincipal = true
	} else if req.IsPrincipal != nil {
		residency.IsPrincipal = *req.IsPrincipal
		if !residency.IsPrincipal {
			// demotion drops the responsibility override with it
			residency.ResponsibilityCents = nil
		}
	}

	if req.ResponsibilityCents != nil {
		if *req.ResponsibilityCents <= 0 {
			return domain.Residency{}, domain.ErrInvalidAmount
		}
		if !residency.IsPrincipal {
			return domain.Residency{}, domain.ErrNotPrincipal
		}
		residency.ResponsibilityCents = req.ResponsibilityCents
	}
	if req.EndDate != nil {
		if !req.EndDate.After(residency.StartDate) {
			return domain.Residency{}, domain.ErrInvalidDates
		}
		residency.EndDate = req.EndDate
	}
	if req.IsActive != nil {
		residency.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, s.db, &residency, s.clock.Now()); err != nil {
		return domain.Residency{}, err
	}
	return residency, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	residency, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	outstanding, err := s.repo.CountOutstandingQuotes(ctx, s.db, int64(residency.ID))
	if err != nil {
		return err
	}
	if outstanding > 0 {
		return domain.ErrOutstandingQuotes
	}

	if err := s.repo.Delete(ctx, s.db, int64(residency.ID)); err != nil {
		return err
	}
	s.log.Info("residency deleted", zap.String("residency_id", residency.ID.String()))
	return nil
}
