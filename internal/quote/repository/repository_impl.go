package repository

import (
	"context"
	"time"

	"github.com/smartcondo/condominio/internal/quote/domain"
	"github.com/smartcondo/condominio/pkg/db/option"
	"github.com/smartcondo/condominio/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, quote *domain.Quote) error {
	return db.WithContext(ctx).Create(quote).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Quote, error) {
	var quote domain.Quote
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM quotes WHERE id = ?`, id,
	).Scan(&quote).Error
	if err != nil {
		return nil, err
	}
	if quote.ID == 0 {
		return nil, nil
	}
	return &quote, nil
}

func (r *repo) FindForPeriod(ctx context.Context, db *gorm.DB, residencyID int64, year int, month *int) (*domain.Quote, error) {
	var quote domain.Quote
	stmt := db.WithContext(ctx).
		Where("residency_id = ?", residencyID).
		Where("period_year = ?", year)
	if month == nil {
		stmt = stmt.Where("period_month IS NULL")
	} else {
		stmt = stmt.Where("period_month = ?", *month)
	}
	err := stmt.Limit(1).Find(&quote).Error
	if err != nil {
		return nil, err
	}
	if quote.ID == 0 {
		return nil, nil
	}
	return &quote, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListQuoteRequest) ([]*domain.Quote, error) {
	var quotes []*domain.Quote
	stmt := db.WithContext(ctx).Model(&domain.Quote{})
	if filter.ResidencyID != "" {
		stmt = stmt.Where("residency_id = ?", filter.ResidencyID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.PeriodYear > 0 {
		stmt = stmt.Where("period_year = ?", filter.PeriodYear)
	}
	stmt = option.ApplyPagination(pagination.Pagination{
		PageToken: filter.PageToken,
		PageSize:  int(filter.PageSize),
	}).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&quotes).Error
	if err != nil {
		return nil, err
	}
	return quotes, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, quote *domain.Quote, now time.Time) error {
	quote.UpdatedAt = now
	return db.WithContext(ctx).Save(quote).Error
}

// MarkOverdue flips every pending quote past its due date in one
// statement so the sweep stays idempotent under repeated runs.
func (r *repo) MarkOverdue(ctx context.Context, db *gorm.DB, before time.Time, now time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Model(&domain.Quote{}).
		Where("status = ?", domain.StatusPending).
		Where("due_date < ?", before).
		Updates(map[string]interface{}{
			"status":     domain.StatusOverdue,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

func (r *repo) Aggregate(ctx context.Context, db *gorm.DB, residencyID int64, year int) ([]domain.StatusBucket, error) {
	var buckets []domain.StatusBucket
	stmt := db.WithContext(ctx).
		Model(&domain.Quote{}).
		Select("status, COUNT(1) AS count, COALESCE(SUM(amount_cents), 0) AS sum").
		Where("period_year = ?", year)
	if residencyID != 0 {
		stmt = stmt.Where("residency_id = ?", residencyID)
	}
	err := stmt.
		Group("status").
		Scan(&buckets).Error
	if err != nil {
		return nil, err
	}
	return buckets, nil
}

func (r *repo) InsertPaymentMethod(ctx context.Context, db *gorm.DB, method *domain.PaymentMethod) error {
	return db.WithContext(ctx).Create(method).Error
}

func (r *repo) FindPaymentMethodByID(ctx context.Context, db *gorm.DB, id int64) (*domain.PaymentMethod, error) {
	var method domain.PaymentMethod
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM payment_methods WHERE id = ?`, id,
	).Scan(&method).Error
	if err != nil {
		return nil, err
	}
	if method.ID == 0 {
		return nil, nil
	}
	return &method, nil
}

func (r *repo) ListPaymentMethods(ctx context.Context, db *gorm.DB) ([]*domain.PaymentMethod, error) {
	var methods []*domain.PaymentMethod
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name asc").
		Find(&methods).Error
	if err != nil {
		return nil, err
	}
	return methods, nil
}

func (r *repo) DeletePaymentMethod(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM payment_methods WHERE id = ?`, id,
	).Error
}

func (r *repo) CountOutstandingByPaymentMethod(ctx context.Context, db *gorm.DB, methodID int64) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM quotes WHERE payment_method_id = ? AND status IN ('PENDING', 'OVERDUE')`,
		methodID,
	).Scan(&count).Error
	return count, err
}
