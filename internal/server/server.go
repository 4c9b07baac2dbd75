// Package server exposes the HTTP API. Handlers bind input, resolve
// the caller once, delegate to the domain services and map errors to
// statuses; no business rules live here.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	"github.com/devlopes006/gestao-clientes/internal/authorization"
	billingdomain "github.com/devlopes006/gestao-clientes/internal/billing/domain"
	clientdomain "github.com/devlopes006/gestao-clientes/internal/client/domain"
	"github.com/devlopes006/gestao-clientes/internal/clock"
	"github.com/devlopes006/gestao-clientes/internal/config"
	installmentdomain "github.com/devlopes006/gestao-clientes/internal/installment/domain"
	invoicedomain "github.com/devlopes006/gestao-clientes/internal/invoice/domain"
	mediadomain "github.com/devlopes006/gestao-clientes/internal/media/domain"
	notifdomain "github.com/devlopes006/gestao-clientes/internal/notification/domain"
	"github.com/devlopes006/gestao-clientes/internal/observability/logger"
	recondomain "github.com/devlopes006/gestao-clientes/internal/reconciliation/domain"
	recurringdomain "github.com/devlopes006/gestao-clientes/internal/recurring/domain"
	reportdomain "github.com/devlopes006/gestao-clientes/internal/report/domain"
	taskdomain "github.com/devlopes006/gestao-clientes/internal/task/domain"
	txdomain "github.com/devlopes006/gestao-clientes/internal/transaction/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Module wires the HTTP layer into the fx graph.
var Module = fx.Module("server",
	fx.Provide(NewEngine, NewServer),
	fx.Invoke(RegisterRoutes, RunHTTP),
)

// Params collects the server's dependencies. Services are optional so
// a partially wired binary still boots; handlers guard with a 503.
type Params struct {
	fx.In

	Cfg   config.Config
	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock

	AuthSvc        authdomain.Service        `optional:"true"`
	AuthzSvc       authorization.Service     `optional:"true"`
	ClientSvc      clientdomain.Service      `optional:"true"`
	InvoiceSvc     invoicedomain.Service     `optional:"true"`
	InstallmentSvc installmentdomain.Service `optional:"true"`
	TxSvc          txdomain.Service          `optional:"true"`
	BillingSvc     billingdomain.Service     `optional:"true"`
	RecurringSvc   recurringdomain.Service   `optional:"true"`
	ReconSvc       recondomain.Service       `optional:"true"`
	ReportSvc      reportdomain.Service      `optional:"true"`
	NotifSvc       notifdomain.Service       `optional:"true"`
	TaskSvc        taskdomain.Service        `optional:"true"`
	MediaSvc       mediadomain.Service       `optional:"true"`
}

// Server holds handler state.
type Server struct {
	cfg   config.Config
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock

	authSvc        authdomain.Service
	authzSvc       authorization.Service
	clientSvc      clientdomain.Service
	invoiceSvc     invoicedomain.Service
	installmentSvc installmentdomain.Service
	txSvc          txdomain.Service
	billingSvc     billingdomain.Service
	recurringSvc   recurringdomain.Service
	reconSvc       recondomain.Service
	reportSvc      reportdomain.Service
	notifSvc       notifdomain.Service
	taskSvc        taskdomain.Service
	mediaSvc       mediadomain.Service

	signInLimiter *rateLimiter
}

// NewServer builds the handler set.
func NewServer(p Params) *Server {
	return &Server{
		cfg:            p.Cfg,
		db:             p.DB,
		log:            p.Log.Named("server"),
		clock:          p.Clock,
		authSvc:        p.AuthSvc,
		authzSvc:       p.AuthzSvc,
		clientSvc:      p.ClientSvc,
		invoiceSvc:     p.InvoiceSvc,
		installmentSvc: p.InstallmentSvc,
		txSvc:          p.TxSvc,
		billingSvc:     p.BillingSvc,
		recurringSvc:   p.RecurringSvc,
		reconSvc:       p.ReconSvc,
		reportSvc:      p.ReportSvc,
		notifSvc:       p.NotifSvc,
		taskSvc:        p.TaskSvc,
		mediaSvc:       p.MediaSvc,
		signInLimiter:  newRateLimiter(10, time.Minute),
	}
}

// NewEngine builds the gin engine with recovery and request logging.
func NewEngine(cfg config.Config, log *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), logger.GinMiddleware(log))
	return engine
}

// RunHTTP attaches the listener to the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, engine *gin.Engine) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
