package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smartcondo/condominio/pkg/db/pagination"
	"gorm.io/gorm"
)

type CreateResidencyRequest struct {
	UnitID              string     `json:"unit_id"`
	UserID              string     `json:"user_id"`
	Kind                Kind       `json:"kind"`
	IsPrincipal         bool       `json:"is_principal"`
	ResponsibilityCents *int64     `json:"responsibility_cents"`
	StartDate           time.Time  `json:"start_date"`
	EndDate             *time.Time `json:"end_date"`
}

type UpdateResidencyRequest struct {
	ID                  string
	IsPrincipal         *bool      `json:"is_principal"`
	ResponsibilityCents *int64     `json:"responsibility_cents"`
	EndDate             *time.Time `json:"end_date"`
	IsActive            *bool      `json:"is_active"`
}

type ListResidencyRequest struct {
	pagination.Pagination
	UnitID   string `form:"unit_id"`
	UserID   string `form:"user_id"`
	Kind     Kind   `form:"kind"`
	IsActive *bool  `form:"is_active"`
}

type ListResidencyResponse struct {
	Residencies []Residency `json:"residencies"`
	pagination.PageInfo
}

type Service interface {
	Create(ctx context.Context, req CreateResidencyRequest) (Residency, error)
	GetByID(ctx context.Context, id string) (Residency, error)
	List(ctx context.Context, req ListResidencyRequest) (ListResidencyResponse, error)
	Update(ctx context.Context, req UpdateResidencyRequest) (Residency, error)
	Delete(ctx context.Context, id string) error
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, residency *Residency) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Residency, error)
	FindPrincipalByUnit(ctx context.Context, db *gorm.DB, unitID int64) (*Residency, error)
	List(ctx context.Context, db *gorm.DB, filter ListResidencyRequest) ([]*Residency, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]*Residency, error)
	Update(ctx context.Context, db *gorm.DB, residency *Residency, now time.Time) error
	Delete(ctx context.Context, db *gorm.DB, id int64) error
	CountOutstandingQuotes(ctx context.Context, db *gorm.DB, residencyID int64) (int64, error)
}

var (
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidKind       = errors.New("invalid_kind")
	ErrInvalidDates      = errors.New("invalid_dates")
	ErrInvalidAmount     = errors.New("invalid_amount")
	ErrNotFound          = errors.New("residency_not_found")
	ErrUnitNotFound      = errors.New("residency_unit_not_found")
	ErrUserNotFound      = errors.New("residency_user_not_found")
	ErrKindRoleMismatch  = errors.New("kind_role_mismatch")
	ErrKindConflict      = errors.New("unit_kind_conflict")
	ErrNotPrincipal      = errors.New("responsibility_requires_principal")
	ErrPrincipalTaken    = errors.New("unit_already_has_principal")
	ErrAlreadyResident   = errors.New("user_already_resides_in_unit")
	ErrOutstandingQuotes = errors.New("residency_has_outstanding_quotes")
)
