package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type VehicleType string

const (
	TypeSedan      VehicleType = "SEDAN"
	TypeSUV        VehicleType = "SUV"
	TypeHatchback  VehicleType = "HATCHBACK"
	TypePickup     VehicleType = "PICKUP"
	TypeMotorcycle VehicleType = "MOTORCYCLE"
	TypeTruck      VehicleType = "TRUCK"
	TypeVan        VehicleType = "VAN"
)

var typeLabels = map[VehicleType]string{
	TypeSedan:      "Sedán",
	TypeSUV:        "SUV",
	TypeHatchback:  "Hatchback",
	TypePickup:     "Camioneta",
	TypeMotorcycle: "Motocicleta",
	TypeTruck:      "Camión",
	TypeVan:        "Furgoneta",
}

func (t VehicleType) Valid() bool {
	_, ok := typeLabels[t]
	return ok
}

func (t VehicleType) Label() string {
	return typeLabels[t]
}

// Vehicle is a registry entry tied to a unit. The plate is stored
// normalized (see NormalizePlate) and is unique across the condominium,
// which is what the gate lookup relies on.
type Vehicle struct {
	ID        snowflake.ID `json:"id,string" gorm:"primaryKey"`
	UnitID    snowflake.ID `json:"unit_id,string" gorm:"index"`
	Plate     string       `json:"plate" gorm:"uniqueIndex;size:20"`
	Brand     string       `json:"brand" gorm:"size:50"`
	Model     string       `json:"model" gorm:"size:50"`
	Color     string       `json:"color" gorm:"size:30"`
	Type      VehicleType  `json:"type" gorm:"size:30"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Vehicle) TableName() string {
	return "vehicles"
}
