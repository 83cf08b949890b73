package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type CreatePetRequest struct {
	UnitID  string `json:"unit_id"`
	Name    string `json:"name"`
	Species string `json:"species"`
	Breed   string `json:"breed"`
}

type UpdatePetRequest struct {
	ID      string
	Name    *string `json:"name"`
	Species *string `json:"species"`
	Breed   *string `json:"breed"`
}

type Service interface {
	Create(ctx context.Context, req CreatePetRequest) (Pet, error)
	GetByID(ctx context.Context, id string) (Pet, error)
	ListByUnit(ctx context.Context, unitID string) ([]Pet, error)
	Update(ctx context.Context, req UpdatePetRequest) (Pet, error)
	Delete(ctx context.Context, id string) error
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, pet *Pet) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Pet, error)
	ListByUnit(ctx context.Context, db *gorm.DB, unitID int64) ([]*Pet, error)
	Update(ctx context.Context, db *gorm.DB, pet *Pet, now time.Time) error
	Delete(ctx context.Context, db *gorm.DB, id int64) error
}

var (
	ErrInvalidID      = errors.New("invalid_id")
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidSpecies = errors.New("invalid_species")
	ErrNotFound       = errors.New("pet_not_found")
	ErrUnitNotFound   = errors.New("pet_unit_not_found")
)
