package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/devlopes006/gestao-clientes/internal/audit/domain"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	clientdomain "github.com/devlopes006/gestao-clientes/internal/client/domain"
	"github.com/devlopes006/gestao-clientes/internal/clock"
	invoicedomain "github.com/devlopes006/gestao-clientes/internal/invoice/domain"
	"github.com/devlopes006/gestao-clientes/pkg/db/pagination"
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
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	auditSvc auditdomain.Service
}

func NewService(p Params) invoicedomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("invoice.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, auth authdomain.AuthContext, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	var created invoicedomain.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		created, err = s.CreateTx(ctx, tx, auth, req)
		return err
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return created, nil
}

// CreateTx validates and inserts the invoice with its items. Invoices
// start OPEN: they are usable immediately.
func (s *Service) CreateTx(ctx context.Context, tx *gorm.DB, auth authdomain.AuthContext, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	if auth.OrgID == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidOrganization
	}
	if req.ClientID == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidClient
	}
	if len(req.Items) == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidItems
	}
	if req.DueDate.IsZero() {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidDueDate
	}

	var client clientdomain.Client
	if err := tx.WithContext(ctx).
		Where("id = ? AND org_id = ?", req.ClientID, auth.OrgID).
		First(&client).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return invoicedomain.Invoice{}, invoicedomain.ErrInvalidClient
		}
		return invoicedomain.Invoice{}, err
	}

	now := s.clock.Now()
	issueDate := req.IssueDate
	if issueDate.IsZero() {
		issueDate = now
	}

	invoiceID := s.genID.Generate()
	items := make([]invoicedomain.Item, 0, len(req.Items))
	for _, input := range req.Items {
		description := strings.TrimSpace(input.Description)
		quantity := input.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		if description == "" || input.UnitAmount < 0 {
			return invoicedomain.Invoice{}, invoicedomain.ErrInvalidItems
		}
		items = append(items, invoicedomain.Item{
			ID:          s.genID.Generate(),
			OrgID:       auth.OrgID,
			InvoiceID:   invoiceID,
			Description: description,
			Quantity:    quantity,
			UnitAmount:  input.UnitAmount,
			Total:       quantity * input.UnitAmount,
		})
	}

	total := invoicedomain.ComputeTotal(items, req.Discount, req.Tax)
	if total < 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidTotal
	}

	number := strings.TrimSpace(req.Number)
	if number == "" {
		var err error
		number, err = s.nextNumber(ctx, tx, auth.OrgID, issueDate)
		if err != nil {
			return invoicedomain.Invoice{}, err
		}
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = client.Currency
	}
	if currency == "" {
		currency = money.DefaultCurrency
	}

	row := invoicedomain.Invoice{
		ID:        invoiceID,
		OrgID:     auth.OrgID,
		ClientID:  client.ID,
		Number:    number,
		IssueDate: issueDate,
		DueDate:   req.DueDate,
		Discount:  req.Discount,
		Tax:       req.Tax,
		Total:     total,
		Currency:  currency,
		Status:    invoicedomain.StatusOpen,
		Notes:     strings.TrimSpace(req.Notes),
		CreatedBy: auth.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return invoicedomain.Invoice{}, invoicedomain.ErrDuplicateNumber
		}
		return invoicedomain.Invoice{}, err
	}
	if err := tx.WithContext(ctx).Create(&items).Error; err != nil {
		return invoicedomain.Invoice{}, err
	}

	row.Items = items
	return row, nil
}

// nextNumber assigns the next sequential number for the issue month.
// The unique index on (org_id, number) is the real guard; a concurrent
// duplicate surfaces as ErrDuplicateNumber.
func (s *Service) nextNumber(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, issueDate time.Time) (string, error) {
	prefix := fmt.Sprintf("INV-%s", issueDate.Format("200601"))
	var count int64
	if err := tx.WithContext(ctx).Model(&invoicedomain.Invoice{}).
		Where("org_id = ? AND number LIKE ?", orgID, prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d", prefix, count+1), nil
}

func (s *Service) GetByID(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) (invoicedomain.Invoice, error) {
	if auth.OrgID == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidOrganization
	}
	var row invoicedomain.Invoice
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND org_id = ?", id, auth.OrgID).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceNotFound
		}
		return invoicedomain.Invoice{}, err
	}
	return row, nil
}

func (s *Service) List(ctx context.Context, auth authdomain.AuthContext, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	if auth.OrgID == 0 {
		return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidOrganization
	}

	// Listing is a natural moment to refresh overdue state.
	if _, err := s.MarkOverdue(ctx, auth.OrgID); err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	query := s.db.WithContext(ctx).Model(&invoicedomain.Invoice{}).Where("org_id = ?", auth.OrgID)
	if req.ClientID != 0 {
		query = query.Where("client_id = ?", req.ClientID)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.DueFrom != nil {
		query = query.Where("due_date >= ?", *req.DueFrom)
	}
	if req.DueTo != nil {
		query = query.Where("due_date < ?", *req.DueTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	offset := req.Offset()
	limit := req.Limit()
	var rows []invoicedomain.Invoice
	if err := query.Order("due_date DESC, id DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	return invoicedomain.ListInvoiceResponse{
		PageInfo: pagination.PageInfo{
			NextPageToken: pagination.NextToken(offset, limit, total),
			TotalSize:     total,
		},
		Invoices: rows,
	}, nil
}

func (s *Service) MarkOverdue(ctx context.Context, orgID snowflake.ID) (int64, error) {
	if orgID == 0 {
		return 0, invoicedomain.ErrInvalidOrganization
	}
	result := s.db.WithContext(ctx).Model(&invoicedomain.Invoice{}).
		Where("org_id = ? AND status = ? AND due_date < ?", orgID, invoicedomain.StatusOpen, s.clock.Now()).
		Updates(map[string]any{
			"status":     invoicedomain.StatusOverdue,
			"updated_at": s.clock.Now(),
		})
	return result.RowsAffected, result.Error
}

func (s *Service) MarkPaidTx(ctx context.Context, tx *gorm.DB, orgID, id snowflake.ID, paidAt time.Time) (invoicedomain.Invoice, error) {
	var row invoicedomain.Invoice
	if err := tx.WithContext(ctx).
		Where("id = ? AND org_id = ?", id, orgID).
		First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceNotFound
		}
		return invoicedomain.Invoice{}, err
	}
	if row.Status == invoicedomain.StatusPaid {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceAlreadyPaid
	}
	if !row.Status.Payable() {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceNotPayable
	}

	now := s.clock.Now()
	if paidAt.IsZero() {
		paidAt = now
	}
	updates := map[string]any{
		"status":     invoicedomain.StatusPaid,
		"paid_at":    paidAt,
		"updated_at": now,
	}
	if err := tx.WithContext(ctx).Model(&invoicedomain.Invoice{}).
		Where("id = ?", row.ID).
		Updates(updates).Error; err != nil {
		return invoicedomain.Invoice{}, err
	}

	row.Status = invoicedomain.StatusPaid
	row.PaidAt = &paidAt
	row.UpdatedAt = now
	return row, nil
}

func (s *Service) Cancel(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID, reason string) (invoicedomain.Invoice, error) {
	return s.close(ctx, auth, id, invoicedomain.StatusCanceled, reason)
}

func (s *Service) Void(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID, reason string) (invoicedomain.Invoice, error) {
	return s.close(ctx, auth, id, invoicedomain.StatusVoid, reason)
}

func (s *Service) close(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID, target invoicedomain.Status, reason string) (invoicedomain.Invoice, error) {
	row, err := s.GetByID(ctx, auth, id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if row.Status == invoicedomain.StatusPaid {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceAlreadyPaid
	}
	if row.Status.IsTerminal() {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceTerminal
	}

	now := s.clock.Now()
	if err := s.db.WithContext(ctx).Model(&invoicedomain.Invoice{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"status":        target,
			"cancel_reason": strings.TrimSpace(reason),
			"updated_at":    now,
		}).Error; err != nil {
		return invoicedomain.Invoice{}, err
	}

	if s.auditSvc != nil {
		action := auditdomain.ActionInvoiceCanceled
		if target == invoicedomain.StatusVoid {
			action = auditdomain.ActionInvoiceVoided
		}
		targetID := row.ID.String()
		if err := s.auditSvc.Record(ctx, auditdomain.Entry{
			OrgID:      auth.OrgID,
			ActorType:  auditdomain.ActorTypeUser,
			ActorID:    auth.UserID.String(),
			Action:     action,
			TargetType: "invoice",
			TargetID:   targetID,
			Metadata: map[string]any{
				"number": row.Number,
				"reason": strings.TrimSpace(reason),
			},
		}); err != nil {
			s.log.Warn("audit record failed", zap.Error(err))
		}
	}

	row.Status = target
	row.CancelReason = strings.TrimSpace(reason)
	row.UpdatedAt = now
	return row, nil
}
