// Package logger provides the application zap logger and the request
// logging middleware.
package logger

import (
	"time"

	"github.com/devlopes006/gestao-clientes/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides *zap.Logger to the fx graph.
var Module = fx.Module("logger",
	fx.Provide(New),
)

// New builds the root logger. Production uses JSON output, everything
// else the development console encoder.
func New(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

const requestIDHeader = "X-Request-Id"

// GinMiddleware logs one line per request with a stable request id.
func GinMiddleware(log *zap.Logger) gin.HandlerFunc {
	access := log.Named("http")
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields,
				zap.String("error", c.Errors.Last().Error()),
				zap.Any("headers", MaskHeaders(c.Request.Header)),
			)
			access.Warn("request failed", fields...)
			return
		}
		access.Info("request", fields...)
	}
}
