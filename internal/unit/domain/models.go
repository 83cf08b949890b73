package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Unit is a dwelling inside the condominium. BasePriceCents is the
// default amount billed when the residency carries no override.
type Unit struct {
	ID             snowflake.ID `json:"id,string" gorm:"primaryKey"`
	Code           string       `json:"code" gorm:"uniqueIndex;size:32"`
	Description    string       `json:"description"`
	BasePriceCents int64        `json:"base_price_cents"`
	AreaM2         float64      `json:"area_m2"`
	Rooms          int          `json:"rooms"`
	Bathrooms      int          `json:"bathrooms"`
	PhotoURL       string       `json:"photo_url,omitempty"`
	IsActive       bool         `json:"is_active"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func (Unit) TableName() string {
	return "units"
}
