package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/devlopes006/gestao-clientes/internal/audit/domain"
	auditrepo "github.com/devlopes006/gestao-clientes/internal/audit/repository"
	auditservice "github.com/devlopes006/gestao-clientes/internal/audit/service"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	billingdomain "github.com/devlopes006/gestao-clientes/internal/billing/domain"
	clientdomain "github.com/devlopes006/gestao-clientes/internal/client/domain"
	"github.com/devlopes006/gestao-clientes/internal/clock"
	installmentdomain "github.com/devlopes006/gestao-clientes/internal/installment/domain"
	installmentservice "github.com/devlopes006/gestao-clientes/internal/installment/service"
	invoicedomain "github.com/devlopes006/gestao-clientes/internal/invoice/domain"
	invoiceservice "github.com/devlopes006/gestao-clientes/internal/invoice/service"
	txdomain "github.com/devlopes006/gestao-clientes/internal/transaction/domain"
	txservice "github.com/devlopes006/gestao-clientes/internal/transaction/service"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testNow = time.Date(2025, time.October, 10, 12, 0, 0, 0, time.UTC)

func setupBillingTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ddl := []string{
		`CREATE TABLE clients (
			id INTEGER PRIMARY KEY,
			org_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			email TEXT, phone TEXT, document TEXT,
			contract_value BIGINT NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT 'BRL',
			contract_start DATETIME, contract_end DATETIME,
			payment_day INTEGER NOT NULL DEFAULT 0,
			is_installment BOOLEAN NOT NULL DEFAULT FALSE,
			installment_count INTEGER NOT NULL DEFAULT 0,
			installment_value BIGINT,
			installment_payment_days TEXT,
			payment_status TEXT NOT NULL DEFAULT 'PENDING',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			notes TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at DATETIME
		)`,
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
		`CREATE TABLE invoice_items (
			id INTEGER PRIMARY KEY,
			org_id BIGINT NOT NULL,
			invoice_id BIGINT NOT NULL,
			description TEXT NOT NULL,
			quantity BIGINT NOT NULL DEFAULT 1,
			unit_amount BIGINT NOT NULL,
			total BIGINT NOT NULL
		)`,
		`CREATE TABLE installments (
			id INTEGER PRIMARY KEY,
			org_id BIGINT NOT NULL,
			client_id BIGINT NOT NULL,
			number INTEGER NOT NULL,
			amount BIGINT NOT NULL,
			currency TEXT NOT NULL DEFAULT 'BRL',
			due_date DATETIME NOT NULL,
			status TEXT NOT NULL DEFAULT 'PENDING',
			paid_at DATETIME,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (client_id, number)
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
		`CREATE UNIQUE INDEX ux_transactions_confirmed_income
			ON transactions (org_id, invoice_id)
			WHERE type = 'INCOME' AND status = 'CONFIRMED' AND deleted_at IS NULL`,
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

type billingFixture struct {
	db           *gorm.DB
	billing      billingdomain.Service
	installments installmentdomain.Service
}

func newBillingFixture(t *testing.T) billingFixture {
	t.Helper()
	db := setupBillingTestDB(t)
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	log := zap.NewNop()
	fixed := clock.Fixed{Instant: testNow}

	audit := auditservice.NewService(auditservice.Params{
		DB: db, Log: log, GenID: node, Repo: auditrepo.Provide(),
	})
	invoices := invoiceservice.NewService(invoiceservice.Params{
		DB: db, Log: log, GenID: node, Clock: fixed, AuditSvc: audit,
	})
	transactions := txservice.NewService(txservice.Params{
		DB: db, Log: log, GenID: node, Clock: fixed,
	})
	installments := installmentservice.NewService(installmentservice.Params{
		DB: db, Log: log, GenID: node, Clock: fixed,
	})
	billing := NewService(Params{
		DB:           db,
		Log:          log,
		GenID:        node,
		Clock:        fixed,
		Invoices:     invoices,
		Transactions: transactions,
		Installments: installments,
		Audit:        audit,
	})
	return billingFixture{db: db, billing: billing, installments: installments}
}

func testAuth(orgID snowflake.ID) authdomain.AuthContext {
	return authdomain.AuthContext{UserID: 99, OrgID: orgID, Role: authdomain.RoleOwner}
}

func seedInstallmentClient(t *testing.T, fx billingFixture, orgID snowflake.ID, count int) clientdomain.Client {
	t.Helper()
	node, _ := snowflake.NewNode(2)
	start := time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC)
	row := clientdomain.Client{
		ID:               node.Generate(),
		OrgID:            orgID,
		Name:             "Acme",
		Currency:         "BRL",
		ContractValue:    int64(count) * 100000,
		ContractStart:    &start,
		PaymentDay:       10,
		IsInstallment:    true,
		InstallmentCount: count,
		PaymentStatus:    clientdomain.PaymentStatusPending,
		Active:           true,
	}
	if err := fx.db.Create(&row).Error; err != nil {
		t.Fatalf("seed client: %v", err)
	}
	if err := fx.installments.GenerateForClientTx(context.Background(), fx.db, row); err != nil {
		t.Fatalf("generate schedule: %v", err)
	}
	return row
}

func seedOpenInvoice(t *testing.T, db *gorm.DB, orgID, clientID snowflake.ID, number string, total int64, due time.Time) invoicedomain.Invoice {
	t.Helper()
	node, _ := snowflake.NewNode(3)
	row := invoicedomain.Invoice{
		ID:        node.Generate(),
		OrgID:     orgID,
		ClientID:  clientID,
		Number:    number,
		IssueDate: testNow,
		DueDate:   due,
		Total:     total,
		Currency:  "BRL",
		Status:    invoicedomain.StatusOpen,
		CreatedBy: 99,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
	return row
}

func TestRecordInvoicePaymentCommitsEverythingTogether(t *testing.T) {
	fx := newBillingFixture(t)
	orgID := snowflake.ID(1010)
	auth := testAuth(orgID)
	cl := seedInstallmentClient(t, fx, orgID, 3)
	inv := seedOpenInvoice(t, fx.db, orgID, cl.ID, "INV-202510-0001", 100000, testNow.AddDate(0, 0, 5))

	result, err := fx.billing.RecordInvoicePayment(context.Background(), auth, billingdomain.RecordPaymentRequest{
		InvoiceID: inv.ID,
		Method:    "pix",
		Notes:     "paid via bank slip 123",
	})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if result.Invoice.Status != invoicedomain.StatusPaid {
		t.Fatalf("invoice status = %s, want PAID", result.Invoice.Status)
	}
	if result.Transaction.Type != txdomain.TypeIncome || result.Transaction.Subtype != txdomain.SubtypeInvoicePayment {
		t.Fatalf("unexpected transaction classification %s/%s", result.Transaction.Type, result.Transaction.Subtype)
	}
	if result.Transaction.Amount != 100000 {
		t.Fatalf("transaction amount = %d, want 100000", result.Transaction.Amount)
	}

	// Operator notes survive into the committed income row.
	var income txdomain.Transaction
	if err := fx.db.First(&income, result.Transaction.ID).Error; err != nil {
		t.Fatalf("load income transaction: %v", err)
	}
	if !strings.Contains(income.Description, "paid via bank slip 123") {
		t.Fatalf("income description = %q, notes were discarded", income.Description)
	}

	var first installmentdomain.Installment
	if err := fx.db.Where("client_id = ? AND number = 1", cl.ID).First(&first).Error; err != nil {
		t.Fatalf("load installment: %v", err)
	}
	if first.Status != installmentdomain.StatusConfirmed {
		t.Fatalf("first installment status = %s, want CONFIRMED", first.Status)
	}

	// Two installments remain, so the client stays PENDING.
	var updated clientdomain.Client
	if err := fx.db.First(&updated, cl.ID).Error; err != nil {
		t.Fatalf("load client: %v", err)
	}
	if updated.PaymentStatus != clientdomain.PaymentStatusPending {
		t.Fatalf("client payment status = %s, want PENDING", updated.PaymentStatus)
	}

	var audits int64
	if err := fx.db.Model(&auditdomain.AuditLog{}).
		Where("org_id = ? AND action = ?", orgID, auditdomain.ActionPaymentRecorded).
		Count(&audits).Error; err != nil {
		t.Fatalf("count audits: %v", err)
	}
	if audits != 1 {
		t.Fatalf("audit rows = %d, want 1", audits)
	}
}

func TestRecordInvoicePaymentTwiceIsIdempotent(t *testing.T) {
	fx := newBillingFixture(t)
	orgID := snowflake.ID(1020)
	auth := testAuth(orgID)
	cl := seedInstallmentClient(t, fx, orgID, 2)
	inv := seedOpenInvoice(t, fx.db, orgID, cl.ID, "INV-202510-0001", 100000, testNow.AddDate(0, 0, 5))

	first, err := fx.billing.RecordInvoicePayment(context.Background(), auth, billingdomain.RecordPaymentRequest{InvoiceID: inv.ID})
	if err != nil {
		t.Fatalf("first payment: %v", err)
	}
	second, err := fx.billing.RecordInvoicePayment(context.Background(), auth, billingdomain.RecordPaymentRequest{InvoiceID: inv.ID})
	if err != nil {
		t.Fatalf("second payment: %v", err)
	}
	if !second.Duplicate {
		t.Fatal("second payment not flagged as duplicate")
	}
	if second.Transaction.ID != first.Transaction.ID {
		t.Fatalf("second payment returned transaction %s, want existing %s",
			second.Transaction.ID, first.Transaction.ID)
	}
	if second.Invoice.Status != invoicedomain.StatusPaid {
		t.Fatalf("invoice status = %s, want PAID", second.Invoice.Status)
	}

	var incomes int64
	if err := fx.db.Model(&txdomain.Transaction{}).
		Where("org_id = ? AND invoice_id = ?", orgID, inv.ID).
		Count(&incomes).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	if incomes != 1 {
		t.Fatalf("income rows = %d, want exactly 1", incomes)
	}
}

func TestRecordPaymentConfirmsClientWhenNothingRemains(t *testing.T) {
	fx := newBillingFixture(t)
	orgID := snowflake.ID(1030)
	auth := testAuth(orgID)
	cl := seedInstallmentClient(t, fx, orgID, 1)
	inv := seedOpenInvoice(t, fx.db, orgID, cl.ID, "INV-202510-0001", 100000, testNow.AddDate(0, 0, 5))

	if _, err := fx.billing.RecordInvoicePayment(context.Background(), auth, billingdomain.RecordPaymentRequest{InvoiceID: inv.ID}); err != nil {
		t.Fatalf("record payment: %v", err)
	}

	var updated clientdomain.Client
	if err := fx.db.First(&updated, cl.ID).Error; err != nil {
		t.Fatalf("load client: %v", err)
	}
	if updated.PaymentStatus != clientdomain.PaymentStatusConfirmed {
		t.Fatalf("client payment status = %s, want CONFIRMED", updated.PaymentStatus)
	}
}

func TestGenerateMonthlyInvoicesBucketsClients(t *testing.T) {
	fx := newBillingFixture(t)
	orgID := snowflake.ID(1040)
	auth := testAuth(orgID)
	node, _ := snowflake.NewNode(4)
	start := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)

	ready := clientdomain.Client{
		ID: node.Generate(), OrgID: orgID, Name: "Ready Co", Currency: "BRL",
		ContractValue: 250000, ContractStart: &start, PaymentDay: 15,
		PaymentStatus: clientdomain.PaymentStatusPending, Active: true,
	}
	bare := clientdomain.Client{
		ID: node.Generate(), OrgID: orgID, Name: "No Contract", Currency: "BRL",
		PaymentStatus: clientdomain.PaymentStatusPending, Active: true,
	}
	invoiced := clientdomain.Client{
		ID: node.Generate(), OrgID: orgID, Name: "Already Invoiced", Currency: "BRL",
		ContractValue: 180000, ContractStart: &start, PaymentDay: 5,
		PaymentStatus: clientdomain.PaymentStatusPending, Active: true,
	}
	for _, cl := range []*clientdomain.Client{&ready, &bare, &invoiced} {
		if err := fx.db.Create(cl).Error; err != nil {
			t.Fatalf("seed client: %v", err)
		}
	}
	seedOpenInvoice(t, fx.db, orgID, invoiced.ID, "INV-202510-0900", 180000,
		time.Date(2025, time.October, 5, 0, 0, 0, 0, time.UTC))

	result, err := fx.billing.GenerateMonthlyInvoices(context.Background(), auth, testNow)
	if err != nil {
		t.Fatalf("generate monthly: %v", err)
	}
	if result.Month != "2025-10" {
		t.Fatalf("month = %s, want 2025-10", result.Month)
	}
	if len(result.Success) != 1 || result.Success[0].ClientID != ready.ID {
		t.Fatalf("success bucket = %+v, want only Ready Co", result.Success)
	}
	if result.Success[0].Amount != 250000 {
		t.Fatalf("generated amount = %d, want 250000", result.Success[0].Amount)
	}
	if want := time.Date(2025, time.October, 15, 0, 0, 0, 0, time.UTC); !result.Success[0].DueDate.Equal(want) {
		t.Fatalf("due date = %s, want %s", result.Success[0].DueDate, want)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("errors bucket = %+v, want empty", result.Errors)
	}

	reasons := map[snowflake.ID]string{}
	for _, b := range result.Blocked {
		reasons[b.ClientID] = b.Reason
	}
	if reasons[bare.ID] != billingdomain.BlockReasonMissingContract {
		t.Fatalf("bare client reason = %s", reasons[bare.ID])
	}
	if reasons[invoiced.ID] != billingdomain.BlockReasonAlreadyInvoiced {
		t.Fatalf("invoiced client reason = %s", reasons[invoiced.ID])
	}
}

func TestGenerateMonthlyInvoicesIsIdempotentPerMonth(t *testing.T) {
	fx := newBillingFixture(t)
	orgID := snowflake.ID(1050)
	auth := testAuth(orgID)
	node, _ := snowflake.NewNode(5)
	start := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)
	cl := clientdomain.Client{
		ID: node.Generate(), OrgID: orgID, Name: "Repeat Co", Currency: "BRL",
		ContractValue: 90000, ContractStart: &start, PaymentDay: 20,
		PaymentStatus: clientdomain.PaymentStatusPending, Active: true,
	}
	if err := fx.db.Create(&cl).Error; err != nil {
		t.Fatalf("seed client: %v", err)
	}

	first, err := fx.billing.GenerateMonthlyInvoices(context.Background(), auth, testNow)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(first.Success) != 1 {
		t.Fatalf("first run success = %d, want 1", len(first.Success))
	}

	second, err := fx.billing.GenerateMonthlyInvoices(context.Background(), auth, testNow)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(second.Success) != 0 {
		t.Fatalf("second run success = %d, want 0", len(second.Success))
	}
	if len(second.Blocked) != 1 || second.Blocked[0].Reason != billingdomain.BlockReasonAlreadyInvoiced {
		t.Fatalf("second run blocked = %+v", second.Blocked)
	}
}

func TestSweepOverdueFlipsInvoicesAndInstallments(t *testing.T) {
	fx := newBillingFixture(t)
	orgID := snowflake.ID(1060)
	cl := seedInstallmentClient(t, fx, orgID, 2)
	seedOpenInvoice(t, fx.db, orgID, cl.ID, "INV-202509-0001", 100000, testNow.AddDate(0, -1, 0))

	// Push the first installment's due date into the past.
	if err := fx.db.Model(&installmentdomain.Installment{}).
		Where("client_id = ? AND number = 1", cl.ID).
		Update("due_date", testNow.AddDate(0, 0, -3)).Error; err != nil {
		t.Fatalf("backdate installment: %v", err)
	}

	result, err := fx.billing.SweepOverdue(context.Background(), orgID)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.InvoicesOverdue != 1 {
		t.Fatalf("invoices overdue = %d, want 1", result.InvoicesOverdue)
	}
	if result.InstallmentsLate != 1 {
		t.Fatalf("installments late = %d, want 1", result.InstallmentsLate)
	}
}
