package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smartcondo/condominio/internal/clock"
	unitdomain "github.com/smartcondo/condominio/internal/unit/domain"
	"github.com/smartcondo/condominio/internal/vehicle/domain"
	"github.com/smartcondo/condominio/pkg/db"
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
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	unitRepo unitdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("vehicle.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		unitRepo: p.UnitRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateVehicleRequest) (domain.Vehicle, error) {
	unitID, err := snowflake.ParseString(strings.TrimSpace(req.UnitID))
	if err != nil || unitID == 0 {
		return domain.Vehicle{}, domain.ErrInvalidID
	}
	if !domain.IsLikelyPlate(req.Plate) {
		return domain.Vehicle{}, domain.ErrInvalidPlate
	}
	vehicleType := req.Type
	if vehicleType == "" {
		vehicleType = domain.TypeSedan
	}
	if !vehicleType.Valid() {
		return domain.Vehicle{}, domain.ErrInvalidType
	}

	unit, err := s.unitRepo.FindByID(ctx, s.db, int64(unitID))
	if err != nil {
		return domain.Vehicle{}, err
	}
	if unit == nil {
		return domain.Vehicle{}, domain.ErrUnitNotFound
	}

	now := s.clock.Now()
	vehicle := domain.Vehicle{
		ID:        s.genID.Generate(),
		UnitID:    unitID,
		Plate:     domain.NormalizePlate(req.Plate),
		Brand:     strings.TrimSpace(req.Brand),
		Model:     strings.TrimSpace(req.Model),
		Color:     strings.TrimSpace(req.Color),
		Type:      vehicleType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, &vehicle); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Vehicle{}, domain.ErrPlateTaken
		}
		return domain.Vehicle{}, err
	}

	s.log.Info("vehicle registered",
		zap.String("vehicle_id", vehicle.ID.String()),
		zap.String("plate", vehicle.Plate),
	)
	return vehicle, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Vehicle, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return domain.Vehicle{}, domain.ErrInvalidID
	}
	vehicle, err := s.repo.FindByID(ctx, s.db, int64(parsed))
	if err != nil {
		return domain.Vehicle{}, err
	}
	if vehicle == nil {
		return domain.Vehicle{}, domain.ErrNotFound
	}
	return *vehicle, nil
}

func (s *Service) FindByPlate(ctx context.Context, plate string) (domain.Vehicle, error) {
	normalized := domain.NormalizePlate(plate)
	if normalized == "" {
		return domain.Vehicle{}, domain.ErrInvalidPlate
	}
	vehicle, err := s.repo.FindByPlate(ctx, s.db, normalized)
	if err != nil {
		return domain.Vehicle{}, err
	}
	if vehicle == nil {
		return domain.Vehicle{}, domain.ErrNotFound
	}
	return *vehicle, nil
}

func (s *Service) ListByUnit(ctx context.Context, unitID string) ([]domain.Vehicle, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(unitID))
	if err != nil || parsed == 0 {
		return nil, domain.ErrInvalidID
	}
	items, err := s.repo.ListByUnit(ctx, s.db, int64(parsed))
	if err != nil {
		return nil, err
	}
	vehicles := make([]domain.Vehicle, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		vehicles = append(vehicles, *item)
	}
	return vehicles, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateVehicleRequest) (domain.Vehicle, error) {
	vehicle, err := s.GetByID(ctx, req.ID)
	if err != nil {
		return domain.Vehicle{}, err
	}

	if req.Brand != nil {
		vehicle.Brand = strings.TrimSpace(*req.Brand)
	}
	if req.Model != nil {
		vehicle.Model = strings.TrimSpace(*req.Model)
	}
	if req.Color != nil {
		vehicle.Color = strings.TrimSpace(*req.Color)
	}
	if req.Type != nil {
		if !req.Type.Valid() {
			return domain.Vehicle{}, domain.ErrInvalidType
		}
		vehicle.Type = *req.Type
	}

	if err := s.repo.Update(ctx, s.db, &vehicle, s.clock.Now()); err != nil {
		return domain.Vehicle{}, err
	}
	return vehicle, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	vehicle, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, s.db, int64(vehicle.ID))
}
