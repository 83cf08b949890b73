package quote

import (
	"github.com/smartcondo/condominio/internal/quote/repository"
	"github.com/smartcondo/condominio/internal/quote/service"
	"go.uber.org/fx"
)

var Module = fx.Module("quote.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
