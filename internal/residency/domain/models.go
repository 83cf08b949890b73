package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	unitdomain "github.com/smartcondo/condominio/internal/unit/domain"
	userdomain "github.com/smartcondo/condominio/internal/user/domain"
)

// Kind says how a user occupies a unit. Owners are billed once a year,
// tenants once a month.
type Kind string

const (
	KindOwner  Kind = "OWNER"
	KindTenant Kind = "TENANT"
)

func (k Kind) Valid() bool {
	return k == KindOwner || k == KindTenant
}

// Residency links a user to a unit. ResponsibilityCents, when set,
// overrides the unit's base price for everything billed through this
// residency. Only one residency per unit may be principal.
type Residency struct {
	ID                  snowflake.ID `json:"id,string" gorm:"primaryKey"`
	UnitID              snowflake.ID `json:"unit_id,string" gorm:"uniqueIndex:idx_residencies_unit_user"`
	UserID              snowflake.ID `json:"user_id,string" gorm:"uniqueIndex:idx_residencies_unit_user"`
	Kind                Kind         `json:"kind" gorm:"size:16"`
	IsPrincipal         bool         `json:"is_principal"`
	ResponsibilityCents *int64       `json:"responsibility_cents,omitempty"`
	StartDate           time.Time    `json:"start_date"`
	EndDate             *time.Time   `json:"end_date,omitempty"`
	IsActive            bool         `json:"is_active"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`

	Unit *unitdomain.Unit `json:"unit,omitempty" gorm:"-"`
	User *userdomain.User `json:"user,omitempty" gorm:"-"`
}

func (Residency) TableName() string {
	return "residencies"
}

// AmountCents resolves what this residency owes per billing period:
// the override when present, the unit's base price otherwise. Zero
// when neither is usable.
func (r Residency) AmountCents() int64 {
	if r.ResponsibilityCents != nil && *r.ResponsibilityCents > 0 {
		return *r.ResponsibilityCents
	}
	if r.Unit != nil {
		return r.Unit.BasePriceCents
	}
	return 0
}
