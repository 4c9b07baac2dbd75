package invoice

import (
	"github.com/devlopes006/gestao-clientes/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(service.NewService),
)
