package audit

import (
	"github.com/devlopes006/gestao-clientes/internal/audit/repository"
	"github.com/devlopes006/gestao-clientes/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
