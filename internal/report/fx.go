package report

import (
	"github.com/devlopes006/gestao-clientes/internal/report/service"
	"go.uber.org/fx"
)

var Module = fx.Module("report.service",
	fx.Provide(service.NewService),
)
