package installment

import (
	"github.com/devlopes006/gestao-clientes/internal/installment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("installment.service",
	fx.Provide(service.NewService),
)
