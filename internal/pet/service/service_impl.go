package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smartcondo/condominio/internal/clock"
	"github.com/smartcondo/condominio/internal/pet/domain"
	unitdomain "github.com/smartcondo/condominio/internal/unit/domain"
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
		log:      p.Log.Named("pet.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		unitRepo: p.UnitRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreatePetRequest) (domain.Pet, error) {
	unitID, err := snowflake.ParseString(strings.TrimSpace(req.UnitID))
	if err != nil || unitID == 0 {
		return domain.Pet{}, domain.ErrInvalidID
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Pet{}, domain.ErrInvalidName
	}
	species := strings.TrimSpace(req.Species)
	if species == "" {
		return domain.Pet{}, domain.ErrInvalidSpecies
	}

	unit, err := s.unitRepo.FindByID(ctx, s.db, int64(unitID))
	if err != nil {
		return domain.Pet{}, err
	}
	if unit == nil {
		return domain.Pet{}, domain.ErrUnitNotFound
	}

	now := s.clock.Now()
	pet := domain.Pet{
		ID:        s.genID.Generate(),
		UnitID:    unitID,
		Name:      name,
		Species:   species,
		Breed:     strings.TrimSpace(req.Breed),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, &pet); err != nil {
		return domain.Pet{}, err
	}
	return pet, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Pet, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return domain.Pet{}, domain.ErrInvalidID
	}
	pet, err := s.repo.FindByID(ctx, s.db, int64(parsed))
	if err != nil {
		return domain.Pet{}, err
	}
	if pet == nil {
		return domain.Pet{}, domain.ErrNotFound
	}
	return *pet, nil
}

func (s *Service) ListByUnit(ctx context.Context, unitID string) ([]domain.Pet, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(unitID))
	if err != nil || parsed == 0 {
		return nil, domain.ErrInvalidID
	}
	items, err := s.repo.ListByUnit(ctx, s.db, int64(parsed))
	if err != nil {
		return nil, err
	}
	pets := make([]domain.Pet, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		pets = append(pets, *item)
	}
	return pets, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdatePetRequest) (domain.Pet, error) {
	pet, err := s.GetByID(ctx, req.ID)
	if err != nil {
		return domain.Pet{}, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return domain.Pet{}, domain.ErrInvalidName
		}
		pet.Name = strings.TrimSpace(*req.Name)
	}
	if req.Species != nil {
		if strings.TrimSpace(*req.Species) == "" {
			return domain.Pet{}, domain.ErrInvalidSpecies
		}
		pet.Species = strings.TrimSpace(*req.Species)
	}
	if req.Breed != nil {
		pet.Breed = strings.TrimSpace(*req.Breed)
	}

	if err := s.repo.Update(ctx, s.db, &pet, s.clock.Now()); err != nil {
		return domain.Pet{}, err
	}
	return pet, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	pet, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, s.db, int64(pet.ID))
}
