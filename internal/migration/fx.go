package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	commonareadomain "github.com/smartcondo/condominio/internal/commonarea/domain"
	"github.com/smartcondo/condominio/internal/config"
	petdomain "github.com/smartcondo/condominio/internal/pet/domain"
	quotedomain "github.com/smartcondo/condominio/internal/quote/domain"
	residencydomain "github.com/smartcondo/condominio/internal/residency/domain"
	"github.com/smartcondo/condominio/internal/seed"
	unitdomain "github.com/smartcondo/condominio/internal/unit/domain"
	userdomain "github.com/smartcondo/condominio/internal/user/domain"
	vehicledomain "github.com/smartcondo/condominio/internal/vehicle/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite and mysql development setups get the gorm schema;
			// the COALESCE unique index above is postgres-only.
			if err := conn.AutoMigrate(
				&userdomain.User{},
				&unitdomain.Unit{},
				&residencydomain.Residency{},
				&quotedomain.PaymentMethod{},
				&quotedomain.Quote{},
				&commonareadomain.CommonArea{},
				&commonareadomain.GeneralRule{},
				&commonareadomain.AreaRule{},
				&commonareadomain.Reservation{},
				&commonareadomain.ReservationCharge{},
				&petdomain.Pet{},
				&vehicledomain.Vehicle{},
			); err != nil {
				return err
			}
		}

		if err := seed.EnsureAdmin(conn); err != nil {
			return err
		}
		if !cfg.SeedOnStartup {
			return nil
		}
		if err := seed.EnsurePaymentMethods(conn); err != nil {
			return err
		}
		return seed.EnsureCommonAreas(conn)
	}),
)
