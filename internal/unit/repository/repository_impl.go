package repository

import (
	"context"
	"time"

	"github.com/smartcondo/condominio/internal/unit/domain"
	"github.com/smartcondo/condominio/pkg/db/option"
	"github.com/smartcondo/condominio/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, unit *domain.Unit) error {
	return db.WithContext(ctx).Create(unit).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Unit, error) {
	var unit domain.Unit
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM units WHERE id = ?`, id,
	).Scan(&unit).Error
	if err != nil {
		return nil, err
	}
	if unit.ID == 0 {
		return nil, nil
	}
	return &unit, nil
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Unit, error) {
	var unit domain.Unit
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM units WHERE code = ?`, code,
	).Scan(&unit).Error
	if err != nil {
		return nil, err
	}
	if unit.ID == 0 {
		return nil, nil
	}
	return &unit, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListUnitRequest) ([]*domain.Unit, error) {
	var units []*domain.Unit
	stmt := db.WithContext(ctx).Model(&domain.Unit{})
	if filter.Code != "" {
		stmt = stmt.Where("code = ?", filter.Code)
	}
	if filter.IsActive != nil {
		stmt = stmt.Where("is_active = ?", *filter.IsActive)
	}
	stmt = option.ApplyPagination(pagination.Pagination{
		PageToken: filter.PageToken,
		PageSize:  int(filter.PageSize),
	}).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&units).Error
	if err != nil {
		return nil, err
	}
	return units, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, unit *domain.Unit, now time.Time) error {
	unit.UpdatedAt = now
	return db.WithContext(ctx).Save(unit).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM units WHERE id = ?`, id,
	).Error
}

func (r *repo) CountResidencies(ctx context.Context, db *gorm.DB, unitID int64) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM residencies WHERE unit_id = ?`, unitID,
	).Scan(&count).Error
	return count, err
}

func (r *repo) CountOutstandingQuotes(ctx context.Context, db *gorm.DB, unitID int64) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1)
		 FROM quotes q
		 JOIN residencies r ON r.id = q.residency_id
		 WHERE r.unit_id = ? AND q.status IN ('PENDING', 'OVERDUE')`, unitID,
	).Scan(&count).Error
	return count, err
}
