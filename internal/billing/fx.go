package billing

import (
	"github.com/devlopes006/gestao-clientes/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(service.NewService),
)
