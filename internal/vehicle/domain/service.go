package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type CreateVehicleRequest struct {
	UnitID string      `json:"unit_id"`
	Plate  string      `json:"plate"`
	Brand  string      `json:"brand"`
	Model  string      `json:"model"`
	Color  string      `json:"color"`
	Type   VehicleType `json:"type"`
}

type UpdateVehicleRequest struct {
	ID    string
	Brand *string      `json:"brand"`
	Model *string      `json:"model"`
	Color *string      `json:"color"`
	Type  *VehicleType `json:"type"`
}

type Service interface {
	Create(ctx context.Context, req CreateVehicleRequest) (Vehicle, error)
	GetByID(ctx context.Context, id string) (Vehicle, error)

	// FindByPlate normalizes the input before lookup, so gate cameras
	// and manual entry resolve to the same record.
	FindByPlate(ctx context.Context, plate string) (Vehicle, error)

	ListByUnit(ctx context.Context, unitID string) ([]Vehicle, error)
	Update(ctx context.Context, req UpdateVehicleRequest) (Vehicle, error)
	Delete(ctx context.Context, id string) error
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, vehicle *Vehicle) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Vehicle, error)
	FindByPlate(ctx context.Context, db *gorm.DB, plate string) (*Vehicle, error)
	ListByUnit(ctx context.Context, db *gorm.DB, unitID int64) ([]*Vehicle, error)
	Update(ctx context.Context, db *gorm.DB, vehicle *Vehicle, now time.Time) error
	Delete(ctx context.Context, db *gorm.DB, id int64) error
}

var (
	ErrInvalidID    = errors.New("invalid_id")
	ErrInvalidPlate = errors.New("invalid_plate")
	ErrInvalidType  = errors.New("invalid_vehicle_type")
	ErrPlateTaken   = errors.New("plate_taken")
	ErrNotFound     = errors.New("vehicle_not_found")
	ErrUnitNotFound = errors.New("vehicle_unit_not_found")
)
