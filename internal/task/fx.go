package task

import (
	"github.com/devlopes006/gestao-clientes/internal/task/service"
	"go.uber.org/fx"
)

var Module = fx.Module("task.service",
	fx.Provide(service.NewService),
)
