package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/devlopes006/gestao-clientes/internal/audit/domain"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	"github.com/devlopes006/gestao-clientes/internal/clock"
	invoicedomain "github.com/devlopes006/gestao-clientes/internal/invoice/domain"
	recondomain "github.com/devlopes006/gestao-clientes/internal/reconciliation/domain"
	txdomain "github.com/devlopes006/gestao-clientes/internal/transaction/domain"
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
	Audit auditdomain.Service
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	audit auditdomain.Service
}

func NewService(p Params) recondomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("reconciliation.service"),
		genID: p.GenID,
		clock: p.Clock,
		audit: p.Audit,
	}
}

func (s *Service) AuditFinancial(ctx context.Context, auth authdomain.AuthContext, year int, months []int) (recondomain.AuditReport, error) {
	if auth.OrgID == 0 {
		return recondomain.AuditReport{}, recondomain.ErrInvalidOrganization
	}
	if year < 2000 || len(months) == 0 {
		return recondomain.AuditReport{}, recondomain.ErrInvalidPeriod
	}

	report := recondomain.AuditReport{Year: year, Months: months, Findings: []recondomain.Finding{}}
	for _, month := range months {
		if month < 1 || month > 12 {
			return recondomain.AuditReport{}, recondomain.ErrInvalidPeriod
		}
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, 0)

		findings, err := s.auditWindow(ctx, auth.OrgID, start, end)
		if err != nil {
			return recondomain.AuditReport{}, err
		}
		report.Findings = append(report.Findings, findings...)
	}
	return report, nil
}

func (s *Service) auditWindow(ctx context.Context, orgID snowflake.ID, start, end time.Time) ([]recondomain.Finding, error) {
	var findings []recondomain.Finding

	// PAID invoices the window owns with no linked transaction.
	var unpaidLinks []invoicedomain.Invoice
	err := s.db.WithContext(ctx).
		Where(`org_id = ? AND status = ? AND paid_at >= ? AND paid_at < ?
			AND id NOT IN (SELECT invoice_id FROM transactions WHERE invoice_id IS NOT NULL AND org_id = ? AND deleted_at IS NULL)`,
			orgID, invoicedomain.StatusPaid, start, end, orgID).
		Find(&unpaidLinks).Error
	if err != nil {
		return nil, err
	}
	for i := range unpaidLinks {
		id := unpaidLinks[i].ID
		findings = append(findings, recondomain.Finding{
			Kind:      recondomain.FindingPaidWithoutTransaction,
			InvoiceID: &id,
			Amount:    unpaidLinks[i].Total,
			Detail:    fmt.Sprintf("invoice %s is PAID with no linked transaction", unpaidLinks[i].Number),
		})
	}

	// INCOME rows with no invoice link. Possibly legitimate manual
	// entries; flagged, never mutated.
	var orphans []txdomain.Transaction
	err = s.db.WithContext(ctx).
		Where("org_id = ? AND type = ? AND invoice_id IS NULL AND date >= ? AND date < ?",
			orgID, txdomain.TypeIncome, start, end).
		Find(&orphans).Error
	if err != nil {
		return nil, err
	}
	for i := range orphans {
		id := orphans[i].ID
		findings = append(findings, recondomain.Finding{
			Kind:          recondomain.FindingOrphanIncome,
			TransactionID: &id,
			Amount:        orphans[i].Amount,
			Detail:        "income transaction has no invoice link",
		})
	}

	// Invoices linked by more than one transaction.
	type multiLink struct {
		InvoiceID snowflake.ID
		Links     int64
	}
	var multis []multiLink
	err = s.db.WithContext(ctx).Raw(`
		SELECT t.invoice_id AS invoice_id, COUNT(*) AS links
		FROM transactions t
		JOIN invoices i ON i.id = t.invoice_id
		WHERE t.org_id = ? AND t.invoice_id IS NOT NULL AND t.deleted_at IS NULL
			AND t.date >= ? AND t.date < ?
		GROUP BY t.invoice_id
		HAVING COUNT(*) > 1`,
		orgID, start, end).Scan(&multis).Error
	if err != nil {
		return nil, err
	}
	for i := range multis {
		id := multis[i].InvoiceID
		findings = append(findings, recondomain.Finding{
			Kind:      recondomain.FindingMultiLinkedInvoice,
			InvoiceID: &id,
			Detail:    fmt.Sprintf("invoice linked by %d transactions", multis[i].Links),
		})
	}
	return findings, nil
}

func (s *Service) ReconcileMonth(ctx context.Context, auth authdomain.AuthContext, req recondomain.ReconcileRequest) (recondomain.ReconcileResult, error) {
	if auth.OrgID == 0 {
		return recondomain.ReconcileResult{}, recondomain.ErrInvalidOrganization
	}
	if req.Year < 2000 || req.Month < 1 || req.Month > 12 {
		return recondomain.ReconcileResult{}, recondomain.ErrInvalidPeriod
	}

	start := time.Date(req.Year, time.Month(req.Month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	income, err := s.sumConfirmed(ctx, auth.OrgID, txdomain.TypeIncome, start, end)
	if err != nil {
		return recondomain.ReconcileResult{}, err
	}
	expense, err := s.sumConfirmed(ctx, auth.OrgID, txdomain.TypeExpense, start, end)
	if err != nil {
		return recondomain.ReconcileResult{}, err
	}

	result := recondomain.ReconcileResult{
		Month:           start.Format("2006-01"),
		RecordedIncome:  income,
		RecordedExpense: expense,
		Adjustments:     []txdomain.Transaction{},
	}
	if req.TargetIncome != nil {
		result.IncomeDelta = *req.TargetIncome - income
	}
	if req.TargetExpense != nil {
		result.ExpenseDelta = *req.TargetExpense - expense
	}
	if result.IncomeDelta == 0 && result.ExpenseDelta == 0 {
		return result, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if result.IncomeDelta != 0 {
			adj, err := s.writeAdjustment(ctx, tx, auth, txdomain.TypeIncome, txdomain.SubtypeOtherIncome,
				result.IncomeDelta, income, *req.TargetIncome, start, req.Notes)
			if err != nil {
				return err
			}
			result.Adjustments = append(result.Adjustments, adj)
		}
		if result.ExpenseDelta != 0 {
			adj, err := s.writeAdjustment(ctx, tx, auth, txdomain.TypeExpense, txdomain.SubtypeOtherExpense,
				result.ExpenseDelta, expense, *req.TargetExpense, start, req.Notes)
			if err != nil {
				return err
			}
			result.Adjustments = append(result.Adjustments, adj)
		}
		return nil
	})
	if err != nil {
		return recondomain.ReconcileResult{}, err
	}

	s.log.Info("month reconciled",
		zap.String("month", result.Month),
		zap.Int64("income_delta", result.IncomeDelta),
		zap.Int64("expense_delta", result.ExpenseDelta),
	)
	return result, nil
}

// writeAdjustment inserts a signed adjusting entry and its audit
// snapshot in the caller's transaction. Replaying the inverse delta
// undoes it; nothing does that automatically.
func (s *Service) writeAdjustment(ctx context.Context, tx *gorm.DB, auth authdomain.AuthContext, typ txdomain.Type, subtype txdomain.Subtype, delta, before, target int64, monthStart time.Time, notes string) (txdomain.Transaction, error) {
	now := s.clock.Now()
	row := txdomain.Transaction{
		ID:          s.genID.Generate(),
		OrgID:       auth.OrgID,
		Type:        typ,
		Subtype:     subtype,
		Amount:      delta,
		Date:        monthStart,
		Description: fmt.Sprintf("reconciliation adjustment %s", monthStart.Format("2006-01")),
		Category:    "reconciliation",
		Status:      txdomain.StatusConfirmed,
		CreatedBy:   auth.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if notes != "" {
		row.Description = fmt.Sprintf("%s (%s)", row.Description, notes)
	}
	if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
		return txdomain.Transaction{}, err
	}

	err := s.audit.RecordTx(ctx, tx, auditdomain.Entry{
		OrgID:      auth.OrgID,
		ActorType:  auditdomain.ActorTypeUser,
		ActorID:    auth.UserID.String(),
		Action:     auditdomain.ActionReconcileAdjustment,
		TargetType: "transaction",
		TargetID:   row.ID.String(),
		Metadata: map[string]any{
			"month":  monthStart.Format("2006-01"),
			"type":   string(typ),
			"before": before,
			"after":  target,
			"delta":  delta,
		},
	})
	if err != nil {
		return txdomain.Transaction{}, err
	}
	return row, nil
}

func (s *Service) sumConfirmed(ctx context.Context, orgID snowflake.ID, typ txdomain.Type, start, end time.Time) (int64, error) {
	var total *int64
	err := s.db.WithContext(ctx).Model(&txdomain.Transaction{}).
		Select("SUM(amount)").
		Where("org_id = ? AND type = ? AND status = ? AND date >= ? AND date < ?",
			orgID, typ, txdomain.StatusConfirmed, start, end).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (s *Service) NormalizeMonth(ctx context.Context, auth authdomain.AuthContext, year, month int) (recondomain.NormalizeResult, error) {
	if auth.OrgID == 0 {
		return recondomain.NormalizeResult{}, recondomain.ErrInvalidOrganization
	}
	if year < 2000 || month < 1 || month > 12 {
		return recondomain.NormalizeResult{}, recondomain.ErrInvalidPeriod
	}

	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	nextMonth := monthStart.AddDate(0, 1, 0)
	monthEnd := nextMonth.Add(-time.Second)
	preWindow := monthStart.Add(-recondomain.NormalizeWindow)
	postWindow := nextMonth.Add(recondomain.NormalizeWindow)
	today := s.clock.Now()

	result := recondomain.NormalizeResult{Month: monthStart.Format("2006-01")}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		moved, err := s.normalizeRange(ctx, tx, auth, "date >= ? AND date < ?", preWindow, monthStart, monthStart)
		if err != nil {
			return err
		}
		result.PulledForward = moved

		moved, err = s.normalizeRange(ctx, tx, auth, "date >= ? AND date < ?", nextMonth, postWindow, monthEnd)
		if err != nil {
			return err
		}
		result.PulledBack = moved

		moved, err = s.normalizeRange(ctx, tx, auth, "date >= ? AND date > ?", postWindow, today, today)
		if err != nil {
			return err
		}
		result.ClampedFuture = moved
		return nil
	})
	if err != nil {
		return recondomain.NormalizeResult{}, err
	}
	return result, nil
}

// normalizeRange snapshots the affected rows' original dates to the
// audit log, then applies one range update. The snapshot is what makes
// the bulk rewrite reversible by hand.
func (s *Service) normalizeRange(ctx context.Context, tx *gorm.DB, auth authdomain.AuthContext, cond string, from, to, newDate time.Time) (int64, error) {
	var rows []txdomain.Transaction
	err := tx.WithContext(ctx).
		Select("id", "date").
		Where("org_id = ?", auth.OrgID).
		Where(cond, from, to).
		Find(&rows).Error
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	snapshots := make([]map[string]any, len(rows))
	ids := make([]snowflake.ID, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
		snapshots[i] = map[string]any{
			"transaction_id": row.ID.String(),
			"old_date":       row.Date.Format(time.RFC3339),
		}
	}
	err = s.audit.RecordTx(ctx, tx, auditdomain.Entry{
		OrgID:      auth.OrgID,
		ActorType:  auditdomain.ActorTypeUser,
		ActorID:    auth.UserID.String(),
		Action:     auditdomain.ActionDateNormalization,
		TargetType: "billing_month",
		TargetID:   newDate.Format("2006-01"),
		Metadata: map[string]any{
			"new_date": newDate.Format(time.RFC3339),
			"rows":     snapshots,
		},
	})
	if err != nil {
		return 0, err
	}

	result := tx.WithContext(ctx).Model(&txdomain.Transaction{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"date": newDate, "updated_at": s.clock.Now()})
	return result.RowsAffected, result.Error
}
