package notification

import (
	billingdomain "github.com/devlopes006/gestao-clientes/internal/billing/domain"
	notifdomain "github.com/devlopes006/gestao-clientes/internal/notification/domain"
	"github.com/devlopes006/gestao-clientes/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(
		service.NewService,
		func(s *service.Service) notifdomain.Service { return s },
		func(s *service.Service) billingdomain.Notifier { return s },
	),
)
