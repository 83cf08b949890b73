// Package domain contains the user aggregate: accounts and the canonical
// role enumeration shared by the whole service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Role is the canonical user role. Every package refers to these constants;
// no other role table exists in the codebase.
type Role string

const (
	RoleAdministrator Role = "ADMINISTRATOR"
	RoleOwner         Role = "OWNER"
	RoleResident      Role = "RESIDENT"
	RoleGuard         Role = "GUARD"
	RoleVisitor       Role = "VISITOR"
)

// roleLabels is the single Spanish label table for roles.
var roleLabels = map[Role]string{
	RoleAdministrator: "Administrador",
	RoleOwner:         "Propietario",
	RoleResident:      "Inquilino",
	RoleGuard:         "Guardia",
	RoleVisitor:       "Visitante",
}

func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

// Label returns the Spanish display label for the role.
func (r Role) Label() string {
	if label, ok := roleLabels[r]; ok {
		return label
	}
	return string(r)
}

// Roles lists every known role.
func Roles() []Role {
	return []Role{RoleAdministrator, RoleOwner, RoleResident, RoleGuard, RoleVisitor}
}

type User struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Email        string       `gorm:"not null;uniqueIndex" json:"email"`
	PasswordHash string       `gorm:"not null" json:"-"`
	FirstName    string       `gorm:"not null" json:"first_name"`
	LastName     string       `gorm:"not null" json:"last_name"`
	Phone        string       `gorm:"" json:"phone,omitempty"`
	PhotoURL     string       `gorm:"" json:"photo_url,omitempty"`
	Role         Role         `gorm:"type:text;not null;index" json:"role"`
	IsActive     bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// FullName is used in reports and generation error entries.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
