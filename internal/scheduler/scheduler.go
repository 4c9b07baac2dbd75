// Package scheduler runs the periodic billing housekeeping: the
// overdue sweep that flips past-due invoices and installments for
// every organization.
package scheduler

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/devlopes006/gestao-clientes/internal/billing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Module starts the sweep loop with the application lifecycle.
var Module = fx.Module("scheduler",
	fx.Provide(NewScheduler),
	fx.Invoke(Run),
)

// sweepInterval is how often the sweep re-checks every org. The sweep
// is idempotent, so running it more often than daily only costs one
// indexed query per org.
const sweepInterval = time.Hour

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Billing billingdomain.Service `optional:"true"`
}

type Scheduler struct {
	db      *gorm.DB
	log     *zap.Logger
	billing billingdomain.Service
}

func NewScheduler(p Params) *Scheduler {
	return &Scheduler{
		db:      p.DB,
		log:     p.Log.Named("scheduler"),
		billing: p.Billing,
	}
}

// Run attaches the sweep loop to the fx lifecycle.
func Run(lc fx.Lifecycle, s *Scheduler) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go s.loop(ctx, done)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			<-done
			return nil
		},
	})
}

func (s *Scheduler) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	// One pass at boot so a restarted process never waits a full
	// interval with stale statuses.
	s.sweepAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepAll(ctx)
		}
	}
}

func (s *Scheduler) sweepAll(ctx context.Context) {
	if s.billing == nil {
		return
	}

	orgIDs, err := s.fetchOrgIDs(ctx)
	if err != nil {
		s.log.Error("loading orgs for sweep", zap.Error(err))
		return
	}

	for _, orgID := range orgIDs {
		result, err := s.billing.SweepOverdue(ctx, orgID)
		if err != nil {
			s.log.Error("overdue sweep failed",
				zap.String("org_id", orgID.String()),
				zap.Error(err),
			)
			continue
		}
		if result.InvoicesOverdue > 0 || result.InstallmentsLate > 0 {
			s.log.Info("overdue sweep",
				zap.String("org_id", orgID.String()),
				zap.Int64("invoices_overdue", result.InvoicesOverdue),
				zap.Int64("installments_late", result.InstallmentsLate),
			)
		}
	}
}

func (s *Scheduler) fetchOrgIDs(ctx context.Context) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := s.db.WithContext(ctx).
		Table("organizations").
		Select("id").
		Scan(&ids).Error
	return ids, err
}
