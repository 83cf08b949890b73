package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smartcondo/condominio/pkg/db/pagination"
	"gorm.io/gorm"
)

type CreateUnitRequest struct {
	Code           string  `json:"code"`
	Description    string  `json:"description"`
	BasePriceCents int64   `json:"base_price_cents"`
	AreaM2         float64 `json:"area_m2"`
	Rooms          int     `json:"rooms"`
	Bathrooms      int     `json:"bathrooms"`
	PhotoURL       string  `json:"photo_url"`
}

type UpdateUnitRequest struct {
	ID             string
	Description    *string  `json:"description"`
	BasePriceCents *int64   `json:"base_price_cents"`
	AreaM2         *float64 `json:"area_m2"`
	Rooms          *int     `json:"rooms"`
	Bathrooms      *int     `json:"bathrooms"`
	PhotoURL       *string  `json:"photo_url"`
	IsActive       *bool    `json:"is_active"`
}

type ListUnitRequest struct {
	pagination.Pagination
	Code     string `form:"code"`
	IsActive *bool  `form:"is_active"`
}

type ListUnitResponse struct {
	Units []Unit `json:"units"`
	pagination.PageInfo
}

type Service interface {
	Create(ctx context.Context, req CreateUnitRequest) (Unit, error)
	GetByID(ctx context.Context, id string) (Unit, error)
	List(ctx context.Context, req ListUnitRequest) (ListUnitResponse, error)
	Update(ctx context.Context, req UpdateUnitRequest) (Unit, error)
	Delete(ctx context.Context, id string) error
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, unit *Unit) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Unit, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*Unit, error)
	List(ctx context.Context, db *gorm.DB, filter ListUnitRequest) ([]*Unit, error)
	Update(ctx context.Context, db *gorm.DB, unit *Unit, now time.Time) error
	Delete(ctx context.Context, db *gorm.DB, id int64) error

	// Delete guards. A unit with residencies, or with quotes still owed
	// through one of them, must not be removed.
	CountResidencies(ctx context.Context, db *gorm.DB, unitID int64) (int64, error)
	CountOutstandingQuotes(ctx context.Context, db *gorm.DB, unitID int64) (int64, error)
}

var (
	ErrInvalidCode       = errors.New("invalid_code")
	ErrInvalidBasePrice  = errors.New("invalid_base_price")
	ErrInvalidID         = errors.New("invalid_id")
	ErrCodeTaken         = errors.New("code_taken")
	ErrNotFound          = errors.New("unit_not_found")
	ErrHasResidencies    = errors.New("unit_has_residencies")
	ErrOutstandingQuotes = errors.New("unit_has_outstanding_quotes")
)
