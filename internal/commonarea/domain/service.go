package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smartcondo/condominio/pkg/db/pagination"
	"gorm.io/gorm"
)

type CreateAreaRequest struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	Capacity         int    `json:"capacity"`
	CostPerHourCents int64  `json:"cost_per_hour_cents"`
	IsReservable     *bool  `json:"is_reservable"`
	AvailableFrom    string `json:"available_from"`
	AvailableTo      string `json:"available_to"`
	ClosedWeekdays   []int  `json:"closed_weekdays"`
}

type UpdateAreaRequest struct {
	ID               string
	Description      *string `json:"description"`
	Capacity         *int    `json:"capacity"`
	CostPerHourCents *int64  `json:"cost_per_hour_cents"`
	IsReservable     *bool   `json:"is_reservable"`
	IsActive         *bool   `json:"is_active"`
	AvailableFrom    *string `json:"available_from"`
	AvailableTo      *string `json:"available_to"`
}

type CreateRuleRequest struct {
	CommonAreaID string `json:"common_area_id"` // empty for a general rule
	Title        string `json:"title"`
	Description  string `json:"description"`
	CreatedByID  string `json:"-"`
}

type RequestReservationRequest struct {
	CommonAreaID       string    `json:"common_area_id"`
	UserID             string    `json:"-"`
	ReservationDate    time.Time `json:"reservation_date"`
	StartTime          string    `json:"start_time"`
	EndTime            string    `json:"end_time"`
	Purpose            string    `json:"purpose"`
	EstimatedAttendees int       `json:"estimated_attendees"`
}

type ResolveReservationRequest struct {
	ReservationID string
	ApprovedByID  string
	AdminNotes    string `json:"admin_notes"`
}

type ListReservationRequest struct {
	pagination.Pagination
	CommonAreaID string            `form:"common_area_id"`
	UserID       string            `form:"user_id"`
	Status       ReservationStatus `form:"status"`
}

type ListReservationResponse struct {
	Reservations []Reservation `json:"reservations"`
	pagination.PageInfo
}

type MarkChargePaidRequest struct {
	ChargeID  string     `json:"charge_id"`
	Reference string     `json:"reference"`
	PaidDate  *time.Time `json:"paid_date"`
}

type Service interface {
	CreateArea(ctx context.Context, req CreateAreaRequest) (CommonArea, error)
	GetAreaBySlug(ctx context.Context, slug string) (CommonArea, error)
	ListAreas(ctx context.Context) ([]CommonArea, error)
	UpdateArea(ctx context.Context, req UpdateAreaRequest) (CommonArea, error)

	CreateGeneralRule(ctx context.Context, req CreateRuleRequest) (GeneralRule, error)
	CreateAreaRule(ctx context.Context, req CreateRuleRequest) (AreaRule, error)
	ListGeneralRules(ctx context.Context) ([]GeneralRule, error)
	ListAreaRules(ctx context.Context, areaID string) ([]AreaRule, error)

	// RequestReservation validates the slot against the area's schedule
	// and existing bookings, computes duration and cost, and records the
	// reservation as PENDING.
	RequestReservation(ctx context.Context, req RequestReservationRequest) (Reservation, error)

	// Approve moves a pending reservation to APPROVED and, when the slot
	// carries a cost, bills the requesting user with a ReservationCharge.
	Approve(ctx context.Context, req ResolveReservationRequest) (Reservation, error)
	Reject(ctx context.Context, req ResolveReservationRequest) (Reservation, error)
	CancelReservation(ctx context.Context, reservationID, requesterID string) (Reservation, error)

	// CompletePast marks approved reservations whose slot has fully
	// elapsed as COMPLETED. Run on a schedule.
	CompletePast(ctx context.Context, now time.Time) (int64, error)

	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, req ListReservationRequest) (ListReservationResponse, error)

	MarkChargePaid(ctx context.Context, req MarkChargePaidRequest) (ReservationCharge, error)
	ListChargesByUser(ctx context.Context, userID string) ([]ReservationCharge, error)
}

type Repository interface {
	InsertArea(ctx context.Context, db *gorm.DB, area *CommonArea) error
	FindAreaByID(ctx context.Context, db *gorm.DB, id int64) (*CommonArea, error)
	FindAreaBySlug(ctx context.Context, db *gorm.DB, slug string) (*CommonArea, error)
	ListAreas(ctx context.Context, db *gorm.DB) ([]*CommonArea, error)
	UpdateArea(ctx context.Context, db *gorm.DB, area *CommonArea, now time.Time) error

	InsertGeneralRule(ctx context.Context, db *gorm.DB, rule *GeneralRule) error
	InsertAreaRule(ctx context.Context, db *gorm.DB, rule *AreaRule) error
	ListGeneralRules(ctx context.Context, db *gorm.DB) ([]*GeneralRule, error)
	ListAreaRules(ctx context.Context, db *gorm.DB, areaID int64) ([]*AreaRule, error)

	InsertReservation(ctx context.Context, db *gorm.DB, reservation *Reservation) error
	FindReservationByID(ctx context.Context, db *gorm.DB, id int64) (*Reservation, error)
	FindOverlapping(ctx context.Context, db *gorm.DB, areaID int64, date time.Time, startTime, endTime string) (*Reservation, error)
	ListReservations(ctx context.Context, db *gorm.DB, filter ListReservationRequest) ([]*Reservation, error)
	UpdateReservation(ctx context.Context, db *gorm.DB, reservation *Reservation, now time.Time) error
	CompleteElapsed(ctx context.Context, db *gorm.DB, cutoff time.Time, now time.Time) (int64, error)

	InsertCharge(ctx context.Context, db *gorm.DB, charge *ReservationCharge) error
	FindChargeByID(ctx context.Context, db *gorm.DB, id int64) (*ReservationCharge, error)
	ListChargesByUser(ctx context.Context, db *gorm.DB, userID int64) ([]*ReservationCharge, error)
	UpdateCharge(ctx context.Context, db *gorm.DB, charge *ReservationCharge, now time.Time) error
}

var (
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidCapacity   = errors.New("invalid_capacity")
	ErrInvalidTimeWindow = errors.New("invalid_time_window")
	ErrInvalidTitle      = errors.New("invalid_title")
	ErrNameTaken         = errors.New("area_name_taken")
	ErrAreaNotFound      = errors.New("common_area_not_found")
	ErrAreaNotReservable = errors.New("common_area_not_reservable")
	ErrAreaClosed        = errors.New("common_area_closed")
	ErrSlotTaken         = errors.New("reservation_slot_taken")
	ErrNotFound          = errors.New("reservation_not_found")
	ErrNotPending        = errors.New("reservation_not_pending")
	ErrNotRequester      = errors.New("reservation_not_requester")
	ErrNotCancellable    = errors.New("reservation_not_cancellable")
	ErrChargeNotFound    = errors.New("reservation_charge_not_found")
	ErrChargeAlreadyPaid = errors.New("reservation_charge_already_paid")
)
