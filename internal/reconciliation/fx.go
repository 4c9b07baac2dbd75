package reconciliation

import (
	"github.com/devlopes006/gestao-clientes/internal/reconciliation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reconciliation.service",
	fx.Provide(service.NewService),
)
