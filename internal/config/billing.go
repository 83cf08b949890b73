package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingConfig holds the tunables of quote generation and the scheduler
// jobs. It lives in billing.yml and hot-reloads on change.
type BillingConfig struct {
	DefaultStartMonth   int             `mapstructure:"defaultStartMonth"`
	DefaultEndMonth     int             `mapstructure:"defaultEndMonth"`
	AnnualTemplate      string          `mapstructure:"annualTemplate"`
	MonthlyTemplate     string          `mapstructure:"monthlyTemplate"`
	ReservationTemplate string          `mapstructure:"reservationTemplate"`
	Jobs                map[string]bool `mapstructure:"jobs"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		DefaultStartMonth:   1,
		DefaultEndMonth:     12,
		AnnualTemplate:      "Cuota anual {year} - Vivienda {unit}",
		MonthlyTemplate:     "Renta {month} {year} - Vivienda {unit}",
		ReservationTemplate: "Reserva {area} - {date}",
		Jobs: map[string]bool{
			"sweep_overdue":         true,
			"generate_quotes":       true,
			"complete_reservations": true,
		},
	}
}

type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/condominio")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CONDOMINIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingConfig()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		v.SetDefault("billing.defaultStartMonth", defaults.DefaultStartMonth)
		v.SetDefault("billing.defaultEndMonth", defaults.DefaultEndMonth)
		v.SetDefault("billing.annualTemplate", defaults.AnnualTemplate)
		v.SetDefault("billing.monthlyTemplate", defaults.MonthlyTemplate)
		v.SetDefault("billing.reservationTemplate", defaults.ReservationTemplate)
		v.SetDefault("billing.jobs", defaults.Jobs)
	}

	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return nil, err
	}
	if err := validateBillingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingConfig
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Printf("[billing-config] reload failed: %v", err)
			return
		}
		if err := validateBillingConfig(updated); err != nil {
			log.Printf("[billing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[billing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticBillingConfigHolder wraps a fixed config, with no file
// watching. Used by tests and one-shot tooling.
func NewStaticBillingConfigHolder(cfg BillingConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *BillingConfigHolder) Get() BillingConfig {
	return h.current.Load().(BillingConfig)
}

func validateBillingConfig(cfg BillingConfig) error {
	if cfg.DefaultStartMonth < 1 || cfg.DefaultStartMonth > 12 {
		return errors.New("billing.defaultStartMonth must be in 1..12")
	}
	if cfg.DefaultEndMonth < 1 || cfg.DefaultEndMonth > 12 {
		return errors.New("billing.defaultEndMonth must be in 1..12")
	}
	if cfg.DefaultStartMonth > cfg.DefaultEndMonth {
		return errors.New("billing.defaultStartMonth cannot be after defaultEndMonth")
	}
	return nil
}
