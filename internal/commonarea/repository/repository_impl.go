package repository

import (
	"context"
	"time"

	"github.com/smartcondo/condominio/internal/commonarea/domain"
	"github.com/smartcondo/condominio/pkg/db/option"
	"github.com/smartcondo/condominio/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertArea(ctx context.Context, db *gorm.DB, area *domain.CommonArea) error {
	return db.WithContext(ctx).Create(area).Error
}

func (r *repo) FindAreaByID(ctx context.Context, db *gorm.DB, id int64) (*domain.CommonArea, error) {
	var area domain.CommonArea
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM common_areas WHERE id = ?`, id,
	).Scan(&area).Error
	if err != nil {
		return nil, err
	}
	if area.ID == 0 {
		return nil, nil
	}
	return &area, nil
}

func (r *repo) FindAreaBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.CommonArea, error) {
	var area domain.CommonArea
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM common_areas WHERE slug = ?`, slug,
	).Scan(&area).Error
	if err != nil {
		return nil, err
	}
	if area.ID == 0 {
		return nil, nil
	}
	return &area, nil
}

func (r *repo) ListAreas(ctx context.Context, db *gorm.DB) ([]*domain.CommonArea, error) {
	var areas []*domain.CommonArea
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name asc").
		Find(&areas).Error
	if err != nil {
		return nil, err
	}
	return areas, nil
}

func (r *repo) UpdateArea(ctx context.Context, db *gorm.DB, area *domain.CommonArea, now time.Time) error {
	area.UpdatedAt = now
	return db.WithContext(ctx).Save(area).Error
}

func (r *repo) InsertGeneralRule(ctx context.Context, db *gorm.DB, rule *domain.GeneralRule) error {
	return db.WithContext(ctx).Create(rule).Error
}

func (r *repo) InsertAreaRule(ctx context.Context, db *gorm.DB, rule *domain.AreaRule) error {
	return db.WithContext(ctx).Create(rule).Error
}

func (r *repo) ListGeneralRules(ctx context.Context, db *gorm.DB) ([]*domain.GeneralRule, error) {
	var rules []*domain.GeneralRule
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at desc").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repo) ListAreaRules(ctx context.Context, db *gorm.DB, areaID int64) ([]*domain.AreaRule, error) {
	var rules []*domain.AreaRule
	err := db.WithContext(ctx).
		Where("common_area_id = ?", areaID).
		Where("is_active = ?", true).
		Order("created_at desc").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repo) InsertReservation(ctx context.Context, db *gorm.DB, reservation *domain.Reservation) error {
	return db.WithContext(ctx).Create(reservation).Error
}

func (r *repo) FindReservationByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Reservation, error) {
	var reservation domain.Reservation
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM reservations WHERE id = ?`, id,
	).Scan(&reservation).Error
	if err != nil {
		return nil, err
	}
	if reservation.ID == 0 {
		return nil, nil
	}
	return &reservation, nil
}

// FindOverlapping relies on "HH:MM" strings ordering like the times
// they encode. Only live bookings (pending or approved) block a slot.
func (r *repo) FindOverlapping(ctx context.Context, db *gorm.DB, areaID int64, date time.Time, startTime, endTime string) (*domain.Reservation, error) {
	var reservation domain.Reservation
	err := db.WithContext(ctx).
		Where("common_area_id = ?", areaID).
		Where("reservation_date = ?", date).
		Where("status IN ?", []domain.ReservationStatus{domain.ReservationPending, domain.ReservationApproved}).
		Where("start_time < ? AND end_time > ?", endTime, startTime).
		Limit(1).
		Find(&reservation).Error
	if err != nil {
		return nil, err
	}
	if reservation.ID == 0 {
		return nil, nil
	}
	return &reservation, nil
}

func (r *repo) ListReservations(ctx context.Context, db *gorm.DB, filter domain.ListReservationRequest) ([]*domain.Reservation, error) {
	var reservations []*domain.Reservation
	stmt := db.WithContext(ctx).Model(&domain.Reservation{})
	if filter.CommonAreaID != "" {
		stmt = stmt.Where("common_area_id = ?", filter.CommonAreaID)
	}
	if filter.UserID != "" {
		stmt = stmt.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	stmt = option.ApplyPagination(pagination.Pagination{
		PageToken: filter.PageToken,
		PageSize:  int(filter.PageSize),
	}).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *repo) UpdateReservation(ctx context.Context, db *gorm.DB, reservation *domain.Reservation, now time.Time) error {
	reservation.UpdatedAt = now
	return db.WithContext(ctx).Save(reservation).Error
}

// CompleteElapsed closes approved reservations whose date is fully in
// the past. Same-day slots are left open; the next run picks them up.
func (r *repo) CompleteElapsed(ctx context.Context, db *gorm.DB, cutoff time.Time, now time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Model(&domain.Reservation{}).
		Where("status = ?", domain.ReservationApproved).
		Where("reservation_date < ?", cutoff).
		Updates(map[string]interface{}{
			"status":     domain.ReservationCompleted,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

func (r *repo) InsertCharge(ctx context.Context, db *gorm.DB, charge *domain.ReservationCharge) error {
	return db.WithContext(ctx).Create(charge).Error
}

func (r *repo) FindChargeByID(ctx context.Context, db *gorm.DB, id int64) (*domain.ReservationCharge, error) {
	var charge domain.ReservationCharge
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM reservation_charges WHERE id = ?`, id,
	).Scan(&charge).Error
	if err != nil {
		return nil, err
	}
	if charge.ID == 0 {
		return nil, nil
	}
	return &charge, nil
}

func (r *repo) ListChargesByUser(ctx context.Context, db *gorm.DB, userID int64) ([]*domain.ReservationCharge, error) {
	var charges []*domain.ReservationCharge
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&charges).Error
	if err != nil {
		return nil, err
	}
	return charges, nil
}

func (r *repo) UpdateCharge(ctx context.Context, db *gorm.DB, charge *domain.ReservationCharge, now time.Time) error {
	charge.UpdatedAt = now
	return db.WithContext(ctx).Save(charge).Error
}
