// Package domain holds the billing entities: payment methods and the
// quote records produced by the generation engine. A quote is unique per
// (residency, period_year, period_month); the database enforces this,
// the engine's existence check only avoids the round trip.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type QuoteStatus string

const (
	StatusPending   QuoteStatus = "PENDING"
	StatusPaid      QuoteStatus = "PAID"
	StatusOverdue   QuoteStatus = "OVERDUE"
	StatusCancelled QuoteStatus = "CANCELLED"
)

var statusLabels = map[QuoteStatus]string{
	StatusPending:   "Pendiente",
	StatusPaid:      "Pagada",
	StatusOverdue:   "Vencida",
	StatusCancelled: "Cancelada",
}

func (s QuoteStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

func (s QuoteStatus) Label() string {
	return statusLabels[s]
}

// Terminal reports whether no further transition is permitted.
func (s QuoteStatus) Terminal() bool {
	return s == StatusPaid
}

// PaymentMethod is a general payment category: cash, transfer, card.
// Gateways (the actual processors) hang off the providers package.
type PaymentMethod struct {
	ID                 snowflake.ID `json:"id,string" gorm:"primaryKey"`
	Name               string       `json:"name" gorm:"uniqueIndex;size:100"`
	Description        string       `json:"description"`
	RequiresGateway    bool         `json:"requires_gateway"`
	ManualVerification bool         `json:"manual_verification"`
	IsActive           bool         `json:"is_active"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

func (PaymentMethod) TableName() string {
	return "payment_methods"
}

// Quote is one due-dated billing record. PeriodMonth is nil for annual
// (owner cadence) quotes and 1-12 for monthly (tenant cadence) ones.
type Quote struct {
	ID               snowflake.ID      `json:"id,string" gorm:"primaryKey"`
	ResidencyID      snowflake.ID      `json:"residency_id,string" gorm:"index"`
	PaymentMethodID  *snowflake.ID     `json:"payment_method_id,string,omitempty"`
	AmountCents      int64             `json:"amount_cents"`
	Description      string            `json:"description"`
	DueDate          time.Time         `json:"due_date"`
	PaidDate         *time.Time        `json:"paid_date,omitempty"`
	PaymentReference string            `json:"payment_reference,omitempty" gorm:"size:200"`
	PaymentData      datatypes.JSONMap `json:"payment_data,omitempty"`
	Status           QuoteStatus       `json:"status" gorm:"size:20;index"`
	PeriodMonth      *int              `json:"period_month,omitempty"`
	PeriodYear       int               `json:"period_year" gorm:"index"`
	IsAutomatic      bool              `json:"is_automatic"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func (Quote) TableName() string {
	return "quotes"
}

// Outstanding reports whether the quote still awaits payment.
func (q Quote) Outstanding() bool {
	return q.Status == StatusPending || q.Status == StatusOverdue
}
