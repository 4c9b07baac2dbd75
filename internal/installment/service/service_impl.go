package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	clientdomain "github.com/devlopes006/gestao-clientes/internal/client/domain"
	"github.com/devlopes006/gestao-clientes/internal/clock"
	installmentdomain "github.com/devlopes006/gestao-clientes/internal/installment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

func NewService(p Params) installmentdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("installment.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) GenerateForClientTx(ctx context.Context, tx *gorm.DB, client clientdomain.Client) error {
	entries := installmentdomain.BuildSchedule(client)
	if len(entries) == 0 {
		return nil
	}

	var existing int64
	if err := tx.WithContext(ctx).Model(&installmentdomain.Installment{}).
		Where("client_id = ?", client.ID).
		Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return installmentdomain.ErrScheduleExists
	}

	now := s.clock.Now()
	rows := make([]installmentdomain.Installment, len(entries))
	for i, entry := range entries {
		rows[i] = installmentdomain.Installment{
			ID:        s.genID.Generate(),
			OrgID:     client.OrgID,
			ClientID:  client.ID,
			Number:    entry.Number,
			Amount:    entry.Amount,
			Currency:  client.Currency,
			DueDate:   entry.DueDate,
			Status:    installmentdomain.StatusPending,
			CreatedAt: now,
		}
	}
	// One batch; the storage layer makes it all-or-nothing.
	return tx.WithContext(ctx).Create(&rows).Error
}

func (s *Service) ListByClient(ctx context.Context, auth authdomain.AuthContext, clientID snowflake.ID) ([]installmentdomain.Installment, error) {
	if auth.OrgID == 0 {
		return nil, installmentdomain.ErrInvalidOrganization
	}
	var rows []installmentdomain.Installment
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND client_id = ?", auth.OrgID, clientID).
		Order("number").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) ConfirmNextTx(ctx context.Context, tx *gorm.DB, orgID, clientID snowflake.ID, paidAt time.Time) error {
	if orgID == 0 {
		return installmentdomain.ErrInvalidOrganization
	}
	if clientID == 0 {
		return installmentdomain.ErrInvalidClient
	}

	var next installmentdomain.Installment
	err := tx.WithContext(ctx).
		Where("org_id = ? AND client_id = ? AND status IN ?", orgID, clientID,
			[]installmentdomain.Status{installmentdomain.StatusPending, installmentdomain.StatusLate}).
		Order("number").
		First(&next).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return err
	}

	return tx.WithContext(ctx).Model(&installmentdomain.Installment{}).
		Where("id = ?", next.ID).
		Updates(map[string]any{
			"status":  installmentdomain.StatusConfirmed,
			"paid_at": paidAt,
		}).Error
}

func (s *Service) MarkLate(ctx context.Context, orgID snowflake.ID) (int64, error) {
	if orgID == 0 {
		return 0, installmentdomain.ErrInvalidOrganization
	}
	result := s.db.WithContext(ctx).Model(&installmentdomain.Installment{}).
		Where("org_id = ? AND status = ? AND due_date < ?", orgID, installmentdomain.StatusPending, s.clock.Now()).
		Update("status", installmentdomain.StatusLate)
	return result.RowsAffected, result.Error
}

func (s *Service) NextPending(ctx context.Context, orgID, clientID snowflake.ID) (*installmentdomain.Installment, error) {
	var next installmentdomain.Installment
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND client_id = ? AND status IN ?", orgID, clientID,
			[]installmentdomain.Status{installmentdomain.StatusPending, installmentdomain.StatusLate}).
		Order("number").
		First(&next).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &next, nil
}
