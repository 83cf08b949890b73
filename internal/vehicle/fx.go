package vehicle

import (
	"github.com/smartcondo/condominio/internal/vehicle/repository"
	"github.com/smartcondo/condominio/internal/vehicle/service"
	"go.uber.org/fx"
)

var Module = fx.Module("vehicle.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
