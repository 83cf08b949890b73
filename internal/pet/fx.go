package pet

import (
	"github.com/smartcondo/condominio/internal/pet/repository"
	"github.com/smartcondo/condominio/internal/pet/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pet.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
