// Package domain models the shared spaces of the condominium and their
// reservations. Reservation times are stored as "HH:MM" wall-clock
// strings; a reservation ending before it starts spills into the next
// day.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type CommonArea struct {
	ID               snowflake.ID `json:"id,string" gorm:"primaryKey"`
	Name             string       `json:"name" gorm:"uniqueIndex;size:100"`
	Slug             string       `json:"slug" gorm:"uniqueIndex;size:120"`
	Description      string       `json:"description"`
	Capacity         int          `json:"capacity"`
	CostPerHourCents int64        `json:"cost_per_hour_cents"`
	IsReservable     bool         `json:"is_reservable"`
	IsActive         bool         `json:"is_active"`

	// Daily availability window, wall clock.
	AvailableFrom string `json:"available_from" gorm:"size:5"`
	AvailableTo   string `json:"available_to" gorm:"size:5"`

	AvailableMonday    bool `json:"available_monday"`
	AvailableTuesday   bool `json:"available_tuesday"`
	AvailableWednesday bool `json:"available_wednesday"`
	AvailableThursday  bool `json:"available_thursday"`
	AvailableFriday    bool `json:"available_friday"`
	AvailableSaturday  bool `json:"available_saturday"`
	AvailableSunday    bool `json:"available_sunday"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CommonArea) TableName() string {
	return "common_areas"
}

// AvailableOn reports whether the area opens on the given weekday.
func (a CommonArea) AvailableOn(day time.Weekday) bool {
	switch day {
	case time.Monday:
		return a.AvailableMonday
	case time.Tuesday:
		return a.AvailableTuesday
	case time.Wednesday:
		return a.AvailableWednesday
	case time.Thursday:
		return a.AvailableThursday
	case time.Friday:
		return a.AvailableFriday
	case time.Saturday:
		return a.AvailableSaturday
	case time.Sunday:
		return a.AvailableSunday
	}
	return false
}

// GeneralRule is a condominium-wide rule published by an administrator.
type GeneralRule struct {
	ID          snowflake.ID `json:"id,string" gorm:"primaryKey"`
	Title       string       `json:"title" gorm:"size:200"`
	Description string       `json:"description"`
	IsActive    bool         `json:"is_active"`
	CreatedByID snowflake.ID `json:"created_by_id,string"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (GeneralRule) TableName() string {
	return "general_rules"
}

// AreaRule is a rule bound to one common area.
type AreaRule struct {
	ID           snowflake.ID `json:"id,string" gorm:"primaryKey"`
	CommonAreaID snowflake.ID `json:"common_area_id,string" gorm:"index"`
	Title        string       `json:"title" gorm:"size:200"`
	Description  string       `json:"description"`
	IsActive     bool         `json:"is_active"`
	CreatedByID  snowflake.ID `json:"created_by_id,string"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (AreaRule) TableName() string {
	return "area_rules"
}

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationApproved  ReservationStatus = "APPROVED"
	ReservationRejected  ReservationStatus = "REJECTED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationCompleted ReservationStatus = "COMPLETED"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationApproved, ReservationRejected,
		ReservationCancelled, ReservationCompleted:
		return true
	}
	return false
}

type Reservation struct {
	ID           snowflake.ID `json:"id,string" gorm:"primaryKey"`
	CommonAreaID snowflake.ID `json:"common_area_id,string" gorm:"uniqueIndex:idx_reservations_slot"`
	UserID       snowflake.ID `json:"user_id,string" gorm:"index"`

	ReservationDate time.Time `json:"reservation_date" gorm:"uniqueIndex:idx_reservations_slot"`
	StartTime       string    `json:"start_time" gorm:"size:5;uniqueIndex:idx_reservations_slot"`
	EndTime         string    `json:"end_time" gorm:"size:5"`

	Purpose            string `json:"purpose,omitempty"`
	EstimatedAttendees int    `json:"estimated_attendees"`

	Status       ReservationStatus `json:"status" gorm:"size:20;index"`
	ApprovedByID *snowflake.ID     `json:"approved_by_id,string,omitempty"`
	AdminNotes   string            `json:"admin_notes,omitempty"`

	TotalMinutes   int   `json:"total_minutes"`
	TotalCostCents int64 `json:"total_cost_cents"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Reservation) TableName() string {
	return "reservations"
}

type ChargeStatus string

const (
	ChargePending   ChargeStatus = "PENDING"
	ChargePaid      ChargeStatus = "PAID"
	ChargeCancelled ChargeStatus = "CANCELLED"
)

// ReservationCharge bills the single responsible user of an approved
// reservation. It is created at approval time, never at save time.
type ReservationCharge struct {
	ID               snowflake.ID `json:"id,string" gorm:"primaryKey"`
	ReservationID    snowflake.ID `json:"reservation_id,string" gorm:"uniqueIndex"`
	UserID           snowflake.ID `json:"user_id,string" gorm:"index"`
	AmountCents      int64        `json:"amount_cents"`
	Description      string       `json:"description"`
	DueDate          time.Time    `json:"due_date"`
	PaidDate         *time.Time   `json:"paid_date,omitempty"`
	PaymentReference string       `json:"payment_reference,omitempty" gorm:"size:200"`
	Status           ChargeStatus `json:"status" gorm:"size:20;index"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

func (ReservationCharge) TableName() string {
	return "reservation_charges"
}
