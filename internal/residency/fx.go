package residency

import (
	"github.com/smartcondo/condominio/internal/residency/repository"
	"github.com/smartcondo/condominio/internal/residency/service"
	"go.uber.org/fx"
)

var Module = fx.Module("residency.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
