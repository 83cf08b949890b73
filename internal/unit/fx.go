package unit

import (
	"github.com/smartcondo/condominio/internal/unit/repository"
	"github.com/smartcondo/condominio/internal/unit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("unit.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
