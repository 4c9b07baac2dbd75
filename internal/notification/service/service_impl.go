package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	billingdomain "github.com/devlopes006/gestao-clientes/internal/billing/domain"
	clientdomain "github.com/devlopes006/gestao-clientes/internal/client/domain"
	"github.com/devlopes006/gestao-clientes/internal/clock"
	"github.com/devlopes006/gestao-clientes/internal/messaging"
	notifdomain "github.com/devlopes006/gestao-clientes/internal/notification/domain"
	"github.com/devlopes006/gestao-clientes/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	WhatsApp messaging.WhatsAppSender `optional:"true"`
	Email    messaging.EmailSender    `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	whatsapp messaging.WhatsAppSender
	email    messaging.EmailSender
}

func NewService(p Params) *Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("notification.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		whatsapp: p.WhatsApp,
		email:    p.Email,
	}
}

func (s *Service) Create(ctx context.Context, auth authdomain.AuthContext, req notifdomain.CreateNotificationRequest) (notifdomain.Notification, error) {
	if auth.OrgID == 0 {
		return notifdomain.Notification{}, notifdomain.ErrInvalidOrganization
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return notifdomain.Notification{}, notifdomain.ErrInvalidTitle
	}
	kind := req.Kind
	if kind == "" {
		kind = notifdomain.KindGeneral
	}

	row := notifdomain.Notification{
		ID:        s.genID.Generate(),
		OrgID:     auth.OrgID,
		ClientID:  req.ClientID,
		Kind:      kind,
		Title:     title,
		Message:   strings.TrimSpace(req.Message),
		CreatedAt: s.clock.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return notifdomain.Notification{}, err
	}
	return row, nil
}

func (s *Service) List(ctx context.Context, auth authdomain.AuthContext, req notifdomain.ListNotificationRequest) ([]notifdomain.Notification, error) {
	if auth.OrgID == 0 {
		return nil, notifdomain.ErrInvalidOrganization
	}
	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := s.db.WithContext(ctx).Where("org_id = ?", auth.OrgID)
	if req.UnreadOnly {
		query = query.Where("read = ?", false)
	}
	var rows []notifdomain.Notification
	err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (s *Service) UnreadCount(ctx context.Context, auth authdomain.AuthContext) (int64, error) {
	if auth.OrgID == 0 {
		return 0, notifdomain.ErrInvalidOrganization
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&notifdomain.Notification{}).
		Where("org_id = ? AND read = ?", auth.OrgID, false).
		Count(&count).Error
	return count, err
}

func (s *Service) MarkRead(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) error {
	if auth.OrgID == 0 {
		return notifdomain.ErrInvalidOrganization
	}
	result := s.db.WithContext(ctx).Model(&notifdomain.Notification{}).
		Where("id = ? AND org_id = ?", id, auth.OrgID).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notifdomain.ErrNotificationNotFound
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, auth authdomain.AuthContext) error {
	if auth.OrgID == 0 {
		return notifdomain.ErrInvalidOrganization
	}
	return s.db.WithContext(ctx).Model(&notifdomain.Notification{}).
		Where("org_id = ? AND read = ?", auth.OrgID, false).
		Update("read", true).Error
}

// PaymentConfirmed writes the in-app notification and pushes the
// client's preferred channels. Every failure is logged and swallowed;
// the payment already committed.
func (s *Service) PaymentConfirmed(ctx context.Context, orgID snowflake.ID, result billingdomain.PaymentResult) {
	amount := money.New(result.Invoice.Total, result.Invoice.Currency)
	title := fmt.Sprintf("Payment received: %s", result.Invoice.Number)
	body := fmt.Sprintf("Invoice %s was paid (%s).", result.Invoice.Number, amount.Display())

	clientID := result.Invoice.ClientID
	row := notifdomain.Notification{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		ClientID:  &clientID,
		Kind:      notifdomain.KindPaymentConfirmed,
		Title:     title,
		Message:   body,
		CreatedAt: s.clock.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		s.log.Warn("payment notification insert failed", zap.Error(err))
	}

	var cl clientdomain.Client
	err := s.db.WithContext(ctx).
		Where("id = ? AND org_id = ?", clientID, orgID).
		First(&cl).Error
	if err != nil {
		s.log.Warn("payment notification client lookup failed", zap.Error(err))
		return
	}

	if s.whatsapp != nil && cl.Phone != "" {
		if err := s.whatsapp.SendText(ctx, cl.Phone, body); err != nil {
			s.log.Warn("whatsapp dispatch failed", zap.Error(err))
		}
	}
	if s.email != nil && cl.Email != "" {
		if err := s.email.Send(ctx, cl.Email, title, body); err != nil {
			s.log.Warn("email dispatch failed", zap.Error(err))
		}
	}
}
