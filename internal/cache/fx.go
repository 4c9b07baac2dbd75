package cache

import (
	"github.com/devlopes006/gestao-clientes/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("cache",
	fx.Provide(NewDashboard),
)

// NewDashboard picks redis when configured, the in-memory fallback
// otherwise.
func NewDashboard(cfg config.Config, log *zap.Logger) Dashboard {
	if cfg.RedisAddr == "" {
		log.Info("dashboard cache using in-memory store")
		return NewMemoryDashboard()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	log.Info("dashboard cache using redis", zap.String("addr", cfg.RedisAddr))
	return NewRedisDashboard(client)
}
