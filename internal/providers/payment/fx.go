package payment

import (
	"github.com/smartcondo/condominio/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg config.Config
	Log *zap.Logger
}

func NewRegistryFromConfig(p Params) *Registry {
	var providers []Provider
	if p.Cfg.StripeSecretKey != "" {
		providers = append(providers, NewStripe(p.Cfg.StripeSecretKey, p.Cfg.StripeWebhookSecret, p.Log))
	}
	if p.Cfg.MercadoPagoToken != "" {
		providers = append(providers, NewMercadoPago(p.Cfg.MercadoPagoToken, p.Log))
	}
	return NewRegistry(providers...)
}

var Module = fx.Module("providers.payment",
	fx.Provide(NewRegistryFromConfig),
)
