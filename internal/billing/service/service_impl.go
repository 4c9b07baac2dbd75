package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/devlopes006/gestao-clientes/internal/audit/domain"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	billingdomain "github.com/devlopes006/gestao-clientes/internal/billing/domain"
	"github.com/devlopes006/gestao-clientes/internal/cache"
	clientdomain "github.com/devlopes006/gestao-clientes/internal/client/domain"
	"github.com/devlopes006/gestao-clientes/internal/clock"
	installmentdomain "github.com/devlopes006/gestao-clientes/internal/installment/domain"
	invoicedomain "github.com/devlopes006/gestao-clientes/internal/invoice/domain"
	txdomain "github.com/devlopes006/gestao-clientes/internal/transaction/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Invoices     invoicedomain.Service
	Transactions txdomain.Service
	Installments installmentdomain.Service
	Audit        auditdomain.Service
	Cache        cache.Dashboard        `optional:"true"`
	Notifier     billingdomain.Notifier `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	invoices     invoicedomain.Service
	transactions txdomain.Service
	installments installmentdomain.Service
	audit        auditdomain.Service
	cache        cache.Dashboard
	notifier     billingdomain.Notifier
}

func NewService(p Params) billingdomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("billing.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		invoices:     p.Invoices,
		transactions: p.Transactions,
		installments: p.Installments,
		audit:        p.Audit,
		cache:        p.Cache,
		notifier:     p.Notifier,
	}
}

func (s *Service) RecordInvoicePayment(ctx context.Context, auth authdomain.AuthContext, req billingdomain.RecordPaymentRequest) (billingdomain.PaymentResult, error) {
	if auth.OrgID == 0 {
		return billingdomain.PaymentResult{}, billingdomain.ErrInvalidOrganization
	}

	inv, err := s.invoices.GetByID(ctx, auth, req.InvoiceID)
	if err != nil {
		return billingdomain.PaymentResult{}, err
	}

	// Check-then-act is only a fast path; the partial unique index on
	// CONFIRMED INCOME rows is what actually closes the race.
	existing, err := s.transactions.FindConfirmedIncomeForInvoice(ctx, nil, auth.OrgID, inv.ID)
	if err != nil {
		return billingdomain.PaymentResult{}, err
	}
	if existing != nil {
		return billingdomain.PaymentResult{Invoice: inv, Transaction: *existing, Duplicate: true}, nil
	}

	paidAt := s.clock.Now()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}

	var result billingdomain.PaymentResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		paid, err := s.invoices.MarkPaidTx(ctx, tx, auth.OrgID, inv.ID, paidAt)
		if err != nil {
			return err
		}

		invoiceID := paid.ID
		income := txdomain.Transaction{
			ID:          s.genID.Generate(),
			OrgID:       auth.OrgID,
			ClientID:    &paid.ClientID,
			InvoiceID:   &invoiceID,
			Type:        txdomain.TypeIncome,
			Subtype:     txdomain.SubtypeInvoicePayment,
			Amount:      paid.Total,
			Currency:    paid.Currency,
			Date:        paidAt,
			Description: fmt.Sprintf("payment of invoice %s", paid.Number),
			Method:      req.Method,
			Status:      txdomain.StatusConfirmed,
			CreatedBy:   auth.UserID,
			CreatedAt:   paidAt,
			UpdatedAt:   paidAt,
		}
		if req.Notes != "" {
			income.Description = fmt.Sprintf("%s (%s)", income.Description, req.Notes)
		}
		if err := s.transactions.InsertTx(ctx, tx, &income); err != nil {
			return err
		}

		if err := s.installments.ConfirmNextTx(ctx, tx, auth.OrgID, paid.ClientID, paidAt); err != nil {
			return err
		}

		status, err := derivePaymentStatus(ctx, tx, auth.OrgID, paid.ClientID)
		if err != nil {
			return err
		}
		if err := tx.WithContext(ctx).Model(&clientdomain.Client{}).
			Where("id = ? AND org_id = ?", paid.ClientID, auth.OrgID).
			Updates(map[string]any{"payment_status": status, "updated_at": paidAt}).Error; err != nil {
			return err
		}

		if err := s.audit.RecordTx(ctx, tx, auditdomain.Entry{
			OrgID:      auth.OrgID,
			ActorType:  auditdomain.ActorTypeUser,
			ActorID:    auth.UserID.String(),
			Action:     auditdomain.ActionPaymentRecorded,
			TargetType: "invoice",
			TargetID:   paid.ID.String(),
			Metadata: map[string]any{
				"client_id":      paid.ClientID.String(),
				"transaction_id": income.ID.String(),
				"amount":         paid.Total,
				"currency":       paid.Currency,
				"paid_at":        paidAt.Format(time.RFC3339),
				"method":         req.Method,
				"notes":          req.Notes,
			},
		}); err != nil {
			return err
		}

		result = billingdomain.PaymentResult{Invoice: paid, Transaction: income}
		return nil
	})
	if err != nil {
		// A concurrent approval beat us to the unique index. Hand back
		// its committed rows as if we had found them up front.
		if err == txdomain.ErrDuplicateInvoiceLink {
			return s.existingPayment(ctx, auth, inv.ID)
		}
		return billingdomain.PaymentResult{}, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, auth.OrgID.String())
	}
	if s.notifier != nil {
		s.notifier.PaymentConfirmed(ctx, auth.OrgID, result)
	}

	s.log.Info("payment recorded",
		zap.String("invoice_id", result.Invoice.ID.String()),
		zap.String("client_id", result.Invoice.ClientID.String()),
		zap.Int64("amount", result.Invoice.Total),
	)
	return result, nil
}

func (s *Service) existingPayment(ctx context.Context, auth authdomain.AuthContext, invoiceID snowflake.ID) (billingdomain.PaymentResult, error) {
	inv, err := s.invoices.GetByID(ctx, auth, invoiceID)
	if err != nil {
		return billingdomain.PaymentResult{}, err
	}
	existing, err := s.transactions.FindConfirmedIncomeForInvoice(ctx, nil, auth.OrgID, invoiceID)
	if err != nil {
		return billingdomain.PaymentResult{}, err
	}
	if existing == nil {
		return billingdomain.PaymentResult{}, txdomain.ErrDuplicateInvoiceLink
	}
	return billingdomain.PaymentResult{Invoice: inv, Transaction: *existing, Duplicate: true}, nil
}

// derivePaymentStatus rescans the client's open obligations instead of
// toggling a flag. Any pending installment or payable invoice keeps
// the client PENDING.
func derivePaymentStatus(ctx context.Context, tx *gorm.DB, orgID, clientID snowflake.ID) (clientdomain.PaymentStatus, error) {
	var openInstallments int64
	err := tx.WithContext(ctx).Model(&installmentdomain.Installment{}).
		Where("org_id = ? AND client_id = ? AND status IN ?",
			orgID, clientID, []installmentdomain.Status{installmentdomain.StatusPending, installmentdomain.StatusLate}).
		Count(&openInstallments).Error
	if err != nil {
		return "", err
	}
	if openInstallments > 0 {
		return clientdomain.PaymentStatusPending, nil
	}

	var openInvoices int64
	err = tx.WithContext(ctx).Model(&invoicedomain.Invoice{}).
		Where("org_id = ? AND client_id = ? AND status IN ?",
			orgID, clientID, []invoicedomain.Status{invoicedomain.StatusOpen, invoicedomain.StatusOverdue}).
		Count(&openInvoices).Error
	if err != nil {
		return "", err
	}
	if openInvoices > 0 {
		return clientdomain.PaymentStatusPending, nil
	}
	return clientdomain.PaymentStatusConfirmed, nil
}

func (s *Service) GenerateMonthlyInvoices(ctx context.Context, auth authdomain.AuthContext, month time.Time) (billingdomain.MonthlyGenerationResult, error) {
	if auth.OrgID == 0 {
		return billingdomain.MonthlyGenerationResult{}, billingdomain.ErrInvalidOrganization
	}
	if month.IsZero() {
		return billingdomain.MonthlyGenerationResult{}, billingdomain.ErrInvalidMonth
	}

	monthStart := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)
	result := billingdomain.MonthlyGenerationResult{
		Month:   monthStart.Format("2006-01"),
		Success: []billingdomain.GeneratedInvoice{},
		Blocked: []billingdomain.BlockedClient{},
		Errors:  []billingdomain.GenerationError{},
	}

	var clients []clientdomain.Client
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND active = ?", auth.OrgID, true).
		Order("name ASC").
		Find(&clients).Error
	if err != nil {
		return billingdomain.MonthlyGenerationResult{}, err
	}

	for _, cl := range clients {
		generated, reason, err := s.generateForClient(ctx, auth, cl, monthStart, monthEnd)
		switch {
		case err != nil:
			// One broken client never aborts the batch.
			s.log.Warn("monthly generation failed for client",
				zap.String("client_id", cl.ID.String()), zap.Error(err))
			result.Errors = append(result.Errors, billingdomain.GenerationError{
				ClientID: cl.ID, Name: cl.Name, Error: err.Error(),
			})
		case reason != "":
			result.Blocked = append(result.Blocked, billingdomain.BlockedClient{
				ClientID: cl.ID, Name: cl.Name, Reason: reason,
			})
		default:
			result.Success = append(result.Success, generated)
		}
	}

	if err := s.audit.Record(ctx, auditdomain.Entry{
		OrgID:      auth.OrgID,
		ActorType:  auditdomain.ActorTypeUser,
		ActorID:    auth.UserID.String(),
		Action:     auditdomain.ActionMonthlyGeneration,
		TargetType: "billing_month",
		TargetID:   result.Month,
		Metadata: map[string]any{
			"generated": len(result.Success),
			"blocked":   len(result.Blocked),
			"errors":    len(result.Errors),
		},
	}); err != nil {
		s.log.Warn("monthly generation audit write failed", zap.Error(err))
	}

	if s.cache != nil && len(result.Success) > 0 {
		s.cache.Invalidate(ctx, auth.OrgID.String())
	}
	return result, nil
}

// generateForClient returns either the generated invoice, a non-empty
// block reason, or an error.
func (s *Service) generateForClient(ctx context.Context, auth authdomain.AuthContext, cl clientdomain.Client, monthStart, monthEnd time.Time) (billingdomain.GeneratedInvoice, string, error) {
	if !cl.HasContractTerms() {
		return billingdomain.GeneratedInvoice{}, billingdomain.BlockReasonMissingContract, nil
	}
	if cl.ContractEnd != nil && cl.ContractEnd.Before(monthStart) {
		return billingdomain.GeneratedInvoice{}, billingdomain.BlockReasonContractEnded, nil
	}

	var already int64
	err := s.db.WithContext(ctx).Model(&invoicedomain.Invoice{}).
		Where("org_id = ? AND client_id = ? AND due_date >= ? AND due_date < ? AND status NOT IN ?",
			auth.OrgID, cl.ID, monthStart, monthEnd,
			[]invoicedomain.Status{invoicedomain.StatusCanceled, invoicedomain.StatusVoid}).
		Count(&already).Error
	if err != nil {
		return billingdomain.GeneratedInvoice{}, "", err
	}
	if already > 0 {
		return billingdomain.GeneratedInvoice{}, billingdomain.BlockReasonAlreadyInvoiced, nil
	}

	amount := cl.ContractValue
	dueDate := dueDateInMonth(monthStart, cl.PaymentDay)
	description := fmt.Sprintf("services %s", monthStart.Format("2006-01"))

	if cl.IsInstallment {
		next, err := s.installments.NextPending(ctx, auth.OrgID, cl.ID)
		if err != nil {
			return billingdomain.GeneratedInvoice{}, "", err
		}
		if next == nil || !next.DueDate.Before(monthEnd) {
			return billingdomain.GeneratedInvoice{}, billingdomain.BlockReasonNoInstallmentDue, nil
		}
		amount = next.Amount
		dueDate = next.DueDate
		description = fmt.Sprintf("installment %d/%d", next.Number, cl.InstallmentCount)
	}

	var generated billingdomain.GeneratedInvoice
	err = s.db.Transaction(func(tx *gorm.DB) error {
		inv, err := s.invoices.CreateTx(ctx, tx, auth, invoicedomain.CreateInvoiceRequest{
			ClientID:  cl.ID,
			IssueDate: s.clock.Now(),
			DueDate:   dueDate,
			Currency:  cl.Currency,
			Items: []invoicedomain.ItemInput{
				{Description: description, Quantity: 1, UnitAmount: amount},
			},
		})
		if err != nil {
			return err
		}
		generated = billingdomain.GeneratedInvoice{
			ClientID:  cl.ID,
			InvoiceID: inv.ID,
			Number:    inv.Number,
			Amount:    inv.Total,
			DueDate:   inv.DueDate,
		}
		return nil
	})
	if err != nil {
		return billingdomain.GeneratedInvoice{}, "", err
	}
	return generated, "", nil
}

func dueDateInMonth(monthStart time.Time, day int) time.Time {
	if day < 1 {
		day = 1
	}
	last := monthStart.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(monthStart.Year(), monthStart.Month(), day, 0, 0, 0, 0, time.UTC)
}

func (s *Service) SweepOverdue(ctx context.Context, orgID snowflake.ID) (billingdomain.SweepResult, error) {
	if orgID == 0 {
		return billingdomain.SweepResult{}, billingdomain.ErrInvalidOrganization
	}
	invoices, err := s.invoices.MarkOverdue(ctx, orgID)
	if err != nil {
		return billingdomain.SweepResult{}, err
	}
	installments, err := s.installments.MarkLate(ctx, orgID)
	if err != nil {
		return billingdomain.SweepResult{}, err
	}
	if invoices > 0 || installments > 0 {
		if s.cache != nil {
			s.cache.Invalidate(ctx, orgID.String())
		}
		s.log.Info("overdue sweep",
			zap.Int64("invoices", invoices),
			zap.Int64("installments", installments),
		)
	}
	return billingdomain.SweepResult{InvoicesOverdue: invoices, InstallmentsLate: installments}, nil
}
