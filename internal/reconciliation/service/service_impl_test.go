package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/devlopes006/gestao-clientes/internal/audit/domain"
	auditrepo "github.com/devlopes006/gestao-clientes/internal/audit/repository"
	auditservice "github.com/devlopes006/gestao-clientes/internal/audit/service"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	"github.com/devlopes006/gestao-clientes/internal/clock"
	invoicedomain "github.com/devlopes006/gestao-clientes/internal/invoice/domain"
	recondomain "github.com/devlopes006/gestao-clientes/internal/reconciliation/domain"
	txdomain "github.com/devlopes006/gestao-clientes/internal/transaction/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testNow = time.Date(2025, time.November, 15, 12, 0, 0, 0, time.UTC)

func setupReconTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ddl := []string{
		`CREATE TABLE invoices (
			id INTEGER PRIMARY KEY,
			org_id BIGINT NOT NULL,
			client_id BIGINT NOT NULL,
			number TEXT NOT NULL,
			issue_date DATETIME NOT NULL,
			due_date DATETIME NOT NULL,
			discount BIGINT NOT NULL DEFAULT 0,
			tax BIGINT NOT NULL DEFAULT 0,
			total BIGINT NOT NULL,
			currency TEXT NOT NULL DEFAULT 'BRL',
			status TEXT NOT NULL DEFAULT 'OPEN',
			paid_at DATETIME,
			notes TEXT, cancel_reason TEXT,
			created_by BIGINT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (org_id, number)
		)`,
		`CREATE TABLE transactions (
			id INTEGER PRIMARY KEY,
			org_id BIGINT NOT NULL,
			client_id BIGINT,
			invoice_id BIGINT,
			type TEXT NOT NULL,
			subtype TEXT NOT NULL,
			amount BIGINT NOT NULL,
			currency TEXT NOT NULL DEFAULT 'BRL',
			date DATETIME NOT NULL,
			description TEXT, category TEXT, method TEXT,
			status TEXT NOT NULL DEFAULT 'CONFIRMED',
			reference_key TEXT,
			created_by BIGINT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at DATETIME
		)`,
		`CREATE TABLE audit_logs (
			id INTEGER PRIMARY KEY,
			org_id BIGINT NOT NULL,
			actor_type TEXT NOT NULL,
			actor_id TEXT,
			action TEXT NOT NULL,
			target_type TEXT, target_id TEXT,
			metadata TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, stmt := range ddl {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("ddl: %v", err)
		}
	}
	return db
}

func newReconService(t *testing.T, db *gorm.DB) recondomain.Service {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	log := zap.NewNop()
	audit := auditservice.NewService(auditservice.Params{
		DB: db, Log: log, GenID: node, Repo: auditrepo.Provide(),
	})
	return NewService(Params{
		DB: db, Log: log, GenID: node, Clock: clock.Fixed{Instant: testNow}, Audit: audit,
	})
}

func testAuth(orgID snowflake.ID) authdomain.AuthContext {
	return authdomain.AuthContext{UserID: 99, OrgID: orgID, Role: authdomain.RoleOwner}
}

var seedSeq snowflake.ID = 5000

func seedTx(t *testing.T, db *gorm.DB, orgID snowflake.ID, typ txdomain.Type, amount int64, date time.Time, invoiceID *snowflake.ID) txdomain.Transaction {
	t.Helper()
	seedSeq++
	subtype := txdomain.SubtypeOtherIncome
	if typ == txdomain.TypeExpense {
		subtype = txdomain.SubtypeOtherExpense
	}
	row := txdomain.Transaction{
		ID:        seedSeq,
		OrgID:     orgID,
		InvoiceID: invoiceID,
		Type:      typ,
		Subtype:   subtype,
		Amount:    amount,
		Currency:  "BRL",
		Date:      date,
		Status:    txdomain.StatusConfirmed,
		CreatedAt: date,
		UpdatedAt: date,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	return row
}

func seedPaidInvoice(t *testing.T, db *gorm.DB, orgID snowflake.ID, number string, total int64, paidAt time.Time) invoicedomain.Invoice {
	t.Helper()
	seedSeq++
	row := invoicedomain.Invoice{
		ID:        seedSeq,
		OrgID:     orgID,
		ClientID:  1,
		Number:    number,
		IssueDate: paidAt.AddDate(0, 0, -10),
		DueDate:   paidAt,
		Total:     total,
		Currency:  "BRL",
		Status:    invoicedomain.StatusPaid,
		PaidAt:    &paidAt,
		CreatedBy: 99,
		CreatedAt: paidAt,
		UpdatedAt: paidAt,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
	return row
}

func TestAuditFinancialFlagsAnomalies(t *testing.T) {
	db := setupReconTestDB(t)
	svc := newReconService(t, db)
	orgID := snowflake.ID(3010)
	ctx := context.Background()
	oct := time.Date(2025, time.October, 15, 0, 0, 0, 0, time.UTC)

	// PAID invoice with no linked transaction.
	ghost := seedPaidInvoice(t, db, orgID, "INV-202510-0001", 50000, oct)
	// Orphan income with no invoice link.
	orphan := seedTx(t, db, orgID, txdomain.TypeIncome, 12000, oct, nil)
	// Invoice linked twice.
	double := seedPaidInvoice(t, db, orgID, "INV-202510-0002", 80000, oct)
	seedTx(t, db, orgID, txdomain.TypeIncome, 80000, oct, &double.ID)
	seedTx(t, db, orgID, txdomain.TypeIncome, 80000, oct.AddDate(0, 0, 1), &double.ID)

	report, err := svc.AuditFinancial(ctx, testAuth(orgID), 2025, []int{10})
	if err != nil {
		t.Fatalf("audit: %v", err)
	}

	kinds := map[string]int{}
	for _, finding := range report.Findings {
		kinds[finding.Kind]++
		switch finding.Kind {
		case recondomain.FindingPaidWithoutTransaction:
			if finding.InvoiceID == nil || *finding.InvoiceID != ghost.ID {
				t.Fatalf("ghost finding = %+v", finding)
			}
		case recondomain.FindingOrphanIncome:
			if finding.TransactionID == nil || *finding.TransactionID != orphan.ID {
				t.Fatalf("orphan finding = %+v", finding)
			}
		case recondomain.FindingMultiLinkedInvoice:
			if finding.InvoiceID == nil || *finding.InvoiceID != double.ID {
				t.Fatalf("multi-link finding = %+v", finding)
			}
		}
	}
	if kinds[recondomain.FindingPaidWithoutTransaction] != 1 ||
		kinds[recondomain.FindingOrphanIncome] != 1 ||
		kinds[recondomain.FindingMultiLinkedInvoice] != 1 {
		t.Fatalf("finding kinds = %v, want one of each", kinds)
	}
}

func TestReconcileMonthWritesAdjustmentWithSnapshot(t *testing.T) {
	db := setupReconTestDB(t)
	svc := newReconService(t, db)
	orgID := snowflake.ID(3020)
	ctx := context.Background()
	oct := time.Date(2025, time.October, 10, 0, 0, 0, 0, time.UTC)

	seedTx(t, db, orgID, txdomain.TypeIncome, 90000, oct, nil)
	target := int64(100000)

	result, err := svc.ReconcileMonth(ctx, testAuth(orgID), recondomain.ReconcileRequest{
		Year: 2025, Month: 10, TargetIncome: &target,
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if result.RecordedIncome != 90000 || result.IncomeDelta != 10000 {
		t.Fatalf("result = %+v, want recorded 90000 delta 10000", result)
	}
	if len(result.Adjustments) != 1 || result.Adjustments[0].Amount != 10000 {
		t.Fatalf("adjustments = %+v, want one of 10000", result.Adjustments)
	}

	var logs []*auditdomain.AuditLog
	if err := db.Where("org_id = ? AND action = ?", orgID, auditdomain.ActionReconcileAdjustment).Find(&logs).Error; err != nil {
		t.Fatalf("load audit: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("audit rows = %d, want 1", len(logs))
	}

	// Re-running against the same target is now a no-op.
	again, err := svc.ReconcileMonth(ctx, testAuth(orgID), recondomain.ReconcileRequest{
		Year: 2025, Month: 10, TargetIncome: &target,
	})
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if again.IncomeDelta != 0 || len(again.Adjustments) != 0 {
		t.Fatalf("second reconcile = %+v, want zero delta", again)
	}
}

func TestNormalizeMonthWindowRules(t *testing.T) {
	db := setupReconTestDB(t)
	svc := newReconService(t, db)
	orgID := snowflake.ID(3030)
	ctx := context.Background()

	pre := seedTx(t, db, orgID, txdomain.TypeExpense, 1000,
		time.Date(2025, time.September, 28, 0, 0, 0, 0, time.UTC), nil)
	post := seedTx(t, db, orgID, txdomain.TypeExpense, 2000,
		time.Date(2025, time.November, 3, 0, 0, 0, 0, time.UTC), nil)
	inside := seedTx(t, db, orgID, txdomain.TypeExpense, 3000,
		time.Date(2025, time.October, 12, 0, 0, 0, 0, time.UTC), nil)
	farPast := seedTx(t, db, orgID, txdomain.TypeExpense, 4000,
		time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC), nil)

	result, err := svc.NormalizeMonth(ctx, testAuth(orgID), 2025, 10)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if result.PulledForward != 1 || result.PulledBack != 1 {
		t.Fatalf("result = %+v, want 1 forward 1 back", result)
	}

	reload := func(id snowflake.ID) time.Time {
		var row txdomain.Transaction
		if err := db.First(&row, id).Error; err != nil {
			t.Fatalf("reload %d: %v", id, err)
		}
		return row.Date
	}
	if want := time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC); !reload(pre.ID).Equal(want) {
		t.Fatalf("pre-window date = %s, want %s", reload(pre.ID), want)
	}
	if want := time.Date(2025, time.October, 31, 23, 59, 59, 0, time.UTC); !reload(post.ID).Equal(want) {
		t.Fatalf("post-window date = %s, want %s", reload(post.ID), want)
	}
	if want := time.Date(2025, time.October, 12, 0, 0, 0, 0, time.UTC); !reload(inside.ID).Equal(want) {
		t.Fatalf("in-month date moved to %s", reload(inside.ID))
	}
	if want := time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC); !reload(farPast.ID).Equal(want) {
		t.Fatalf("far-past date moved to %s", reload(farPast.ID))
	}

	// Original dates are snapshotted before the rewrite.
	var snapshots int64
	if err := db.Model(&auditdomain.AuditLog{}).
		Where("org_id = ? AND action = ?", orgID, auditdomain.ActionDateNormalization).
		Count(&snapshots).Error; err != nil {
		t.Fatalf("count snapshots: %v", err)
	}
	if snapshots != 2 {
		t.Fatalf("snapshot entries = %d, want 2", snapshots)
	}
}

func TestNormalizeMonthClampsFarFutureToToday(t *testing.T) {
	db := setupReconTestDB(t)
	svc := newReconService(t, db)
	orgID := snowflake.ID(3040)
	ctx := context.Background()

	future := seedTx(t, db, orgID, txdomain.TypeExpense, 5000,
		time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), nil)

	result, err := svc.NormalizeMonth(ctx, testAuth(orgID), 2025, 10)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if result.ClampedFuture != 1 {
		t.Fatalf("result = %+v, want 1 clamped", result)
	}

	var row txdomain.Transaction
	if err := db.First(&row, future.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !row.Date.Equal(testNow) {
		t.Fatalf("future date = %s, want clamped to %s", row.Date, testNow)
	}
}
