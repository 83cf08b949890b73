package repository

import (
	"context"
	"time"

	"github.com/smartcondo/condominio/internal/residency/domain"
	"github.com/smartcondo/condominio/pkg/db/option"
	"github.com/smartcondo/condominio/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, residency *domain.Residency) error {
	return db.WithContext(ctx).Create(residency).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Residency, error) {
	var residency domain.Residency
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM residencies WHERE id = ?`, id,
	).Scan(&residency).Error
	if err != nil {
		return nil, err
	}
	if residency.ID == 0 {
		return nil, nil
	}
	return &residency, nil
}

func (r *repo) FindPrincipalByUnit(ctx context.Context, db *gorm.DB, unitID int64) (*domain.Residency, error) {
	var residency domain.Residency
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM residencies WHERE unit_id = ? AND is_principal = ? AND is_active = ?`,
		unitID, true, true,
	).Scan(&residency).Error
	if err != nil {
		return nil, err
	}
	if residency.ID == 0 {
		return nil, nil
	}
	return &residency, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListResidencyRequest) ([]*domain.Residency, error) {
	var residencies []*domain.Residency
	stmt := db.WithContext(ctx).Model(&domain.Residency{})
	if filter.UnitID != "" {
		stmt = stmt.Where("unit_id = ?", filter.UnitID)
	}
	if filter.UserID != "" {
		stmt = stmt.Where("user_id = ?", filter.UserID)
	}
	if filter.Kind != "" {
		stmt = stmt.Where("kind = ?", filter.Kind)
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
		Find(&residencies).Error
	if err != nil {
		return nil, err
	}
	return residencies, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]*domain.Residency, error) {
	var residencies []*domain.Residency
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id asc").
		Find(&residencies).Error
	if err != nil {
		return nil, err
	}
	return residencies, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, residency *domain.Residency, now time.Time) error {
	residency.UpdatedAt = now
	return db.WithContext(ctx).Save(residency).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM residencies WHERE id = ?`, id,
	).Error
}

func (r *repo) CountOutstandingQuotes(ctx context.Context, db *gorm.DB, residencyID int64) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM quotes WHERE residency_id = ? AND status IN ('PENDING', 'OVERDUE')`,
		residencyID,
	).Scan(&count).Error
	return count, err
}
