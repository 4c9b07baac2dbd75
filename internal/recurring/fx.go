package recurring

import (
	"github.com/devlopes006/gestao-clientes/internal/recurring/service"
	"go.uber.org/fx"
)

var Module = fx.Module("recurring.service",
	fx.Provide(service.NewService),
)
