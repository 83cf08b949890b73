package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smartcondo/condominio/internal/clock"
	"github.com/smartcondo/condominio/internal/unit/domain"
	"github.com/smartcondo/condominio/pkg/db"
	"github.com/smartcondo/condominio/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("unit.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateUnitRequest) (domain.Unit, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return domain.Unit{}, domain.ErrInvalidCode
	}
	if req.BasePriceCents <= 0 {
		return domain.Unit{}, domain.ErrInvalidBasePrice
	}

	now := s.clock.Now()
	unit := domain.Unit{
		ID:             s.genID.Generate(),
		Code:           code,
		Description:    strings.TrimSpace(req.Description),
		BasePriceCents: req.BasePriceCents,
		AreaM2:         req.AreaM2,
		Rooms:          req.Rooms,
		Bathrooms:      req.Bathrooms,
		PhotoURL:       strings.TrimSpace(req.PhotoURL),
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Insert(ctx, s.db, &unit); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Unit{}, domain.ErrCodeTaken
		}
		return domain.Unit{}, err
	}

	s.log.Info("unit created",
		zap.String("unit_id", unit.ID.String()),
		zap.String("code", unit.Code),
	)
	return unit, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Unit, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return domain.Unit{}, domain.ErrInvalidID
	}

	unit, err := s.repo.FindByID(ctx, s.db, int64(parsed))
	if err != nil {
		return domain.Unit{}, err
	}
	if unit == nil {
		return domain.Unit{}, domain.ErrNotFound
	}
	return *unit, nil
}

func (s *Service) List(ctx context.Context, req domain.ListUnitRequest) (domain.ListUnitResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	req.PageSize = pageSize

	items, err := s.repo.List(ctx, s.db, req)
	if err != nil {
		return domain.ListUnitResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(unit *domain.Unit) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        unit.ID.String(),
			CreatedAt: unit.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	units := make([]domain.Unit, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		units = append(units, *item)
	}

	resp := domain.ListUnitResponse{Units: units}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateUnitRequest) (domain.Unit, error) {
	unit, err := s.GetByID(ctx, req.ID)
	if err != nil {
		return domain.Unit{}, err
	}

	if req.Description != nil {
		unit.Description = strings.TrimSpace(*req.Description)
	}
	if req.BasePriceCents != nil {
		if *req.BasePriceCents <= 0 {
			return domain.Unit{}, domain.ErrInvalidBasePrice
		}
		unit.BasePriceCents = *req.BasePriceCents
	}
	if req.AreaM2 != nil {
		unit.AreaM2 = *req.AreaM2
	}
	if req.Rooms != nil {
		unit.Rooms = *req.Rooms
	}
	if req.Bathrooms != nil {
		unit.Bathrooms = *req.Bathrooms
	}
	if req.PhotoURL != nil {
		unit.PhotoURL = strings.TrimSpace(*req.PhotoURL)
	}
	if req.IsActive != nil {
		unit.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, s.db, &unit, s.clock.Now()); err != nil {
		return domain.Unit{}, err
	}
	return unit, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	unit, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	outstanding, err := s.repo.CountOutstandingQuotes(ctx, s.db, int64(unit.ID))
	if err != nil {
		return err
	}
	if outstanding > 0 {
		return domain.ErrOutstandingQuotes
	}

	residencies, err := s.repo.CountResidencies(ctx, s.db, int64(unit.ID))
	if err != nil {
		return err
	}
	if residencies > 0 {
		return domain.ErrHasResidencies
	}

	if err := s.repo.Delete(ctx, s.db, int64(unit.ID)); err != nil {
		return err
	}
	s.log.Info("unit deleted", zap.String("unit_id", unit.ID.String()))
	return nil
}
