// Package db provides the gorm database handle for the application.
package db

import (
	"errors"
	"time"

	"github.com/devlopes006/gestao-clientes/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Module provides *gorm.DB to the fx graph.
var Module = fx.Module("db",
	fx.Provide(New),
)

// New opens the configured database. Postgres is the production driver;
// a sqlite DSN is accepted for local development and tests.
func New(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	if cfg.DatabaseDSN == "" {
		return nil, errors.New("missing_database_dsn")
	}

	gormCfg := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	}

	var (
		conn *gorm.DB
		err  error
	)
	switch cfg.DatabaseDriver {
	case config.DatabaseDriverSQLite:
		conn, err = gorm.Open(sqlite.Open(cfg.DatabaseDSN), gormCfg)
	default:
		conn, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), gormCfg)
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info("database connected", zap.String("driver", string(cfg.DatabaseDriver)))
	return conn, nil
}
