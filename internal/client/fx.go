package client

import (
	"github.com/devlopes006/gestao-clientes/internal/client/service"
	"go.uber.org/fx"
)

var Module = fx.Module("client.service",
	fx.Provide(service.NewService),
)
