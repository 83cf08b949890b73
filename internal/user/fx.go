package user

import (
	"github.com/smartcondo/condominio/internal/user/repository"
	"github.com/smartcondo/condominio/internal/user/service"
	"go.uber.org/fx"
)

var Module = fx.Module("user.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
