// Package seed bootstraps a fresh installation with an administrator
// account, the standard payment methods, and a couple of common areas.
// Every Ensure function is idempotent and safe to rerun on startup.
package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	commonareadomain "github.com/smartcondo/condominio/internal/commonarea/domain"
	quotedomain "github.com/smartcondo/condominio/internal/quote/domain"
	userdomain "github.com/smartcondo/condominio/internal/user/domain"
)

const (
	defaultAdminEmail    = "admin@condominio.local"
	defaultAdminPassword = "admin"
)

func EnsureAdmin(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user userdomain.User
		err := tx.WithContext(ctx).
			Where("email = ?", defaultAdminEmail).
			First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(defaultAdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		user = userdomain.User{
			ID:           node.Generate(),
			Email:        strings.ToLower(defaultAdminEmail),
			PasswordHash: string(hash),
			FirstName:    "Administrador",
			LastName:     "General",
			Role:         userdomain.RoleAdministrator,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.WithContext(ctx).Create(&user).Error
	})
}

// EnsurePaymentMethods inserts the manual payment categories used by
// most installations. Gateway-backed methods are created on demand.
func EnsurePaymentMethods(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	methods := []quotedomain.PaymentMethod{
		{Name: "Efectivo", Description: "Pago en efectivo en administración", ManualVerification: true},
		{Name: "Transferencia", Description: "Transferencia bancaria", ManualVerification: true},
		{Name: "Tarjeta", Description: "Pago con tarjeta vía pasarela", RequiresGateway: true},
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		for _, method := range methods {
			var existing quotedomain.PaymentMethod
			err := tx.WithContext(ctx).
				Where("name = ?", method.Name).
				First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			method.ID = node.Generate()
			method.IsActive = true
			method.CreatedAt = now
			method.UpdatedAt = now
			if err := tx.WithContext(ctx).Create(&method).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func EnsureCommonAreas(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	areas := []commonareadomain.CommonArea{
		{
			Name:             "Salón de Fiestas",
			Slug:             "salon-de-fiestas",
			Description:      "Salón techado con cocina",
			Capacity:         60,
			CostPerHourCents: 250000,
			AvailableFrom:    "08:00",
			AvailableTo:      "23:00",
		},
		{
			Name:          "Cancha de Usos Múltiples",
			Slug:          "cancha-de-usos-multiples",
			Description:   "Cancha al aire libre",
			Capacity:      20,
			AvailableFrom: "06:00",
			AvailableTo:   "21:00",
		},
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		for _, area := range areas {
			var existing commonareadomain.CommonArea
			err := tx.WithContext(ctx).
				Where("slug = ?", area.Slug).
				First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			area.ID = node.Generate()
			area.IsReservable = true
			area.IsActive = true
			area.AvailableMonday = true
			area.AvailableTuesday = true
			area.AvailableWednesday = true
			area.AvailableThursday = true
			area.AvailableFriday = true
			area.AvailableSaturday = true
			area.AvailableSunday = true
			area.CreatedAt = now
			area.UpdatedAt = now
			if err := tx.WithContext(ctx).Create(&area).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
