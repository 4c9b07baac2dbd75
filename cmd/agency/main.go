// @title           Gestao de Clientes API
// @version         1.0
// @description     Client, billing and financial operations API

// @host      localhost:8080
// @BasePath  /
// @Schemes   http https

package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/devlopes006/gestao-clientes/internal/audit"
	"github.com/devlopes006/gestao-clientes/internal/auth"
	"github.com/devlopes006/gestao-clientes/internal/authorization"
	"github.com/devlopes006/gestao-clientes/internal/billing"
	"github.com/devlopes006/gestao-clientes/internal/cache"
	"github.com/devlopes006/gestao-clientes/internal/client"
	"github.com/devlopes006/gestao-clientes/internal/clock"
	"github.com/devlopes006/gestao-clientes/internal/config"
	"github.com/devlopes006/gestao-clientes/internal/installment"
	"github.com/devlopes006/gestao-clientes/internal/invoice"
	"github.com/devlopes006/gestao-clientes/internal/media"
	"github.com/devlopes006/gestao-clientes/internal/messaging"
	"github.com/devlopes006/gestao-clientes/internal/migration"
	"github.com/devlopes006/gestao-clientes/internal/notification"
	"github.com/devlopes006/gestao-clientes/internal/observability/logger"
	"github.com/devlopes006/gestao-clientes/internal/reconciliation"
	"github.com/devlopes006/gestao-clientes/internal/recurring"
	"github.com/devlopes006/gestao-clientes/internal/report"
	"github.com/devlopes006/gestao-clientes/internal/scheduler"
	"github.com/devlopes006/gestao-clientes/internal/seed"
	"github.com/devlopes006/gestao-clientes/internal/server"
	"github.com/devlopes006/gestao-clientes/internal/task"
	"github.com/devlopes006/gestao-clientes/internal/transaction"
	"github.com/devlopes006/gestao-clientes/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		cache.Module,
		messaging.Module,

		fx.Invoke(Bootstrap),

		audit.Module,
		auth.Module,
		authorization.Module,
		client.Module,
		installment.Module,
		invoice.Module,
		transaction.Module,
		billing.Module,
		recurring.Module,
		reconciliation.Module,
		report.Module,
		notification.Module,
		task.Module,
		media.Module,

		scheduler.Module,
		server.Module,
	)
	app.Run()
}

// RegisterSnowflake provides the process-wide id generator.
func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

// Bootstrap applies migrations and seeds the default org before the
// HTTP server starts taking requests.
func Bootstrap(conn *gorm.DB, cfg config.Config) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	if err := migration.RunMigrations(sqlDB); err != nil {
		return err
	}
	if cfg.Bootstrap.EnsureDefaultOrgAndOwner {
		return seed.EnsureDefaultOrgAndOwner(conn, cfg)
	}
	return nil
}
