package auth

import (
	"github.com/devlopes006/gestao-clientes/internal/auth/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(service.NewService),
)
