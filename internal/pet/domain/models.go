package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Pet is a simple registry entry tied to a unit. No audit trail is
// required, so removal is a hard delete.
type Pet struct {
	ID        snowflake.ID `json:"id,string" gorm:"primaryKey"`
	UnitID    snowflake.ID `json:"unit_id,string" gorm:"index"`
	Name      string       `json:"name" gorm:"size:100"`
	Species   string       `json:"species" gorm:"size:50"`
	Breed     string       `json:"breed,omitempty" gorm:"size:100"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Pet) TableName() string {
	return "pets"
}
