package repository

import (
	"context"
	"time"

	"github.com/smartcondo/condominio/internal/pet/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, pet *domain.Pet) error {
	return db.WithContext(ctx).Create(pet).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Pet, error) {
	var pet domain.Pet
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM pets WHERE id = ?`, id,
	).Scan(&pet).Error
	if err != nil {
		return nil, err
	}
	if pet.ID == 0 {
		return nil, nil
	}
	return &pet, nil
}

func (r *repo) ListByUnit(ctx context.Context, db *gorm.DB, unitID int64) ([]*domain.Pet, error) {
	var pets []*domain.Pet
	err := db.WithContext(ctx).
		Where("unit_id = ?", unitID).
		Order("name asc").
		Find(&pets).Error
	if err != nil {
		return nil, err
	}
	return pets, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, pet *domain.Pet, now time.Time) error {
	pet.UpdatedAt = now
	return db.WithContext(ctx).Save(pet).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM pets WHERE id = ?`, id,
	).Error
}
