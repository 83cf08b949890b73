package commonarea

import (
	"github.com/smartcondo/condominio/internal/commonarea/repository"
	"github.com/smartcondo/condominio/internal/commonarea/service"
	"go.uber.org/fx"
)

var Module = fx.Module("commonarea.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
