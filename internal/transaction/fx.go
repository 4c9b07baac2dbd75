package transaction

import (
	"github.com/devlopes006/gestao-clientes/internal/transaction/service"
	"go.uber.org/fx"
)

var Module = fx.Module("transaction.service",
	fx.Provide(service.NewService),
)
