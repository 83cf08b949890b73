package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smartcondo/condominio/pkg/db/pagination"
	"gorm.io/gorm"
)

type GenerateRequest struct {
	ResidencyID         string `json:"residency_id"`
	Year                int    `json:"year"`
	BaseAmountCents     *int64 `json:"base_amount_cents"`
	StartMonth          int    `json:"start_month"`
	EndMonth            int    `json:"end_month"`
	DescriptionTemplate string `json:"description_template"`
}

type GenerateAllRequest struct {
	PaymentMethodID string `json:"payment_method_id"`
	Year            int    `json:"year"`
	StartMonth      int    `json:"start_month"`
	EndMonth        int    `json:"end_month"`
}

// GenerationError is one failed residency inside a batch run. The batch
// itself never fails because of it.
type GenerationError struct {
	ResidencyID string `json:"residency_id"`
	UnitCode    string `json:"unit_code"`
	UserName    string `json:"user_name"`
	Error       string `json:"error"`
}

type GenerationReport struct {
	TotalResidencies int               `json:"total_residencies"`
	QuotesCreated    int               `json:"quotes_created"`
	OwnersProcessed  int               `json:"owners_processed"`
	TenantsProcessed int               `json:"tenants_processed"`
	Errors           []GenerationError `json:"errors"`
}

type CreateQuoteRequest struct {
	ResidencyID string    `json:"residency_id"`
	AmountCents int64     `json:"amount_cents"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	PeriodMonth *int      `json:"period_month"`
	PeriodYear  int       `json:"period_year"`
}

type MarkPaidRequest struct {
	QuoteID         string     `json:"quote_id"`
	PaymentMethodID string     `json:"payment_method_id"`
	Reference       string     `json:"reference"`
	PaidDate        *time.Time `json:"paid_date"`
}

type ListQuoteRequest struct {
	pagination.Pagination
	ResidencyID string      `form:"residency_id"`
	Status      QuoteStatus `form:"status"`
	PeriodYear  int         `form:"period_year"`
}

type ListQuoteResponse struct {
	Quotes []Quote `json:"quotes"`
	pagination.PageInfo
}

type SummaryRequest struct {
	ResidencyID string `form:"residency_id"`
	Year        int    `form:"year"`
}

// Summary aggregates one year's quotes by status. Amounts are cents.
type Summary struct {
	Year                 int    `json:"year"`
	TotalQuotes          int64  `json:"total_quotes"`
	PendingQuotes        int64  `json:"pending_quotes"`
	PaidQuotes           int64  `json:"paid_quotes"`
	OverdueQuotes        int64  `json:"overdue_quotes"`
	CancelledQuotes      int64  `json:"cancelled_quotes"`
	TotalAmountCents     int64  `json:"total_amount_cents"`
	PaidAmountCents      int64  `json:"paid_amount_cents"`
	PendingAmountCents   int64  `json:"pending_amount_cents"`
	OverdueAmountCents   int64  `json:"overdue_amount_cents"`
	CancelledAmountCents int64  `json:"cancelled_amount_cents"`
	UnitCode             string `json:"unit_code,omitempty"`
	UserName             string `json:"user_name,omitempty"`
}

type CreatePaymentMethodRequest struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	RequiresGateway    bool   `json:"requires_gateway"`
	ManualVerification bool   `json:"manual_verification"`
}

type Service interface {
	// GenerateForResidency produces the quotes one residency owes for a
	// year: a single annual quote for owners, one quote per month in the
	// requested range for tenants. Periods already billed are skipped.
	// Only newly created quotes are returned.
	GenerateForResidency(ctx context.Context, req GenerateRequest) ([]Quote, error)

	// GenerateForAllActive runs the per-residency generation across every
	// active residency in an active unit. A failing residency is recorded
	// in the report and never aborts the batch.
	GenerateForAllActive(ctx context.Context, req GenerateAllRequest) (GenerationReport, error)

	// SweepOverdue transitions every pending quote whose due date has
	// passed to OVERDUE, returning how many rows changed.
	SweepOverdue(ctx context.Context, today time.Time) (int64, error)

	// Summarize aggregates quote counts and amounts per status for a
	// year, optionally restricted to one residency.
	Summarize(ctx context.Context, req SummaryRequest) (Summary, error)

	Create(ctx context.Context, req CreateQuoteRequest) (Quote, error)
	GetByID(ctx context.Context, id string) (Quote, error)
	List(ctx context.Context, req ListQuoteRequest) (ListQuoteResponse, error)
	MarkPaid(ctx context.Context, req MarkPaidRequest) (Quote, error)
	Cancel(ctx context.Context, id string) (Quote, error)

	CreatePaymentMethod(ctx context.Context, req CreatePaymentMethodRequest) (PaymentMethod, error)
	ListPaymentMethods(ctx context.Context) ([]PaymentMethod, error)
	DeletePaymentMethod(ctx context.Context, id string) error
}

// StatusBucket is one row of the per-status aggregate.
type StatusBucket struct {
	Status QuoteStatus
	Count  int64
	Sum    int64
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, quote *Quote) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Quote, error)
	FindForPeriod(ctx context.Context, db *gorm.DB, residencyID int64, year int, month *int) (*Quote, error)
	List(ctx context.Context, db *gorm.DB, filter ListQuoteRequest) ([]*Quote, error)
	Update(ctx context.Context, db *gorm.DB, quote *Quote, now time.Time) error
	MarkOverdue(ctx context.Context, db *gorm.DB, before time.Time, now time.Time) (int64, error)
	Aggregate(ctx context.Context, db *gorm.DB, residencyID int64, year int) ([]StatusBucket, error)

	InsertPaymentMethod(ctx context.Context, db *gorm.DB, method *PaymentMethod) error
	FindPaymentMethodByID(ctx context.Context, db *gorm.DB, id int64) (*PaymentMethod, error)
	ListPaymentMethods(ctx context.Context, db *gorm.DB) ([]*PaymentMethod, error)
	DeletePaymentMethod(ctx context.Context, db *gorm.DB, id int64) error
	CountOutstandingByPaymentMethod(ctx context.Context, db *gorm.DB, methodID int64) (int64, error)
}

var (
	ErrInvalidID             = errors.New("invalid_id")
	ErrInvalidYear           = errors.New("invalid_year")
	ErrInvalidMonthRange     = errors.New("invalid_month_range")
	ErrInvalidAmount         = errors.New("invalid_amount")
	ErrInvalidDueDate        = errors.New("invalid_due_date")
	ErrNotFound              = errors.New("quote_not_found")
	ErrResidencyNotFound     = errors.New("quote_residency_not_found")
	ErrAlreadyPaid           = errors.New("quote_already_paid")
	ErrQuoteCancelled        = errors.New("quote_cancelled")
	ErrNotCancellable        = errors.New("quote_not_cancellable")
	ErrPaymentMethodTaken    = errors.New("payment_method_name_taken")
	ErrPaymentMethodNotFound = errors.New("payment_method_not_found")
	ErrPaymentMethodInUse    = errors.New("payment_method_in_use")
	ErrPeriodAlreadyBilled   = errors.New("period_already_billed")
	ErrInvalidName           = errors.New("invalid_name")
)
