package repository

import (
	"context"
	"time"

	"github.com/smartcondo/condominio/internal/vehicle/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, vehicle *domain.Vehicle) error {
	return db.WithContext(ctx).Create(vehicle).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Vehicle, error) {
	var vehicle domain.Vehicle
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM vehicles WHERE id = ?`, id,
	).Scan(&vehicle).Error
	if err != nil {
		return nil, err
	}
	if vehicle.ID == 0 {
		return nil, nil
	}
	return &vehicle, nil
}

func (r *repo) FindByPlate(ctx context.Context, db *gorm.DB, plate string) (*domain.Vehicle, error) {
	var vehicle domain.Vehicle
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM vehicles WHERE plate = ?`, plate,
	).Scan(&vehicle).Error
	if err != nil {
		return nil, err
	}
	if vehicle.ID == 0 {
		return nil, nil
	}
	return &vehicle, nil
}

func (r *repo) ListByUnit(ctx context.Context, db *gorm.DB, unitID int64) ([]*domain.Vehicle, error) {
	var vehicles []*domain.Vehicle
	err := db.WithContext(ctx).
		Where("unit_id = ?", unitID).
		Order("plate asc").
		Find(&vehicles).Error
	if err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, vehicle *domain.Vehicle, now time.Time) error {
	vehicle.UpdatedAt = now
	return db.WithContext(ctx).Save(vehicle).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM vehicles WHERE id = ?`, id,
	).Error
}
