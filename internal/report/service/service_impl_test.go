package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	"github.com/devlopes006/gestao-clientes/internal/cache"
	"github.com/devlopes006/gestao-clientes/internal/clock"
	"github.com/devlopes006/gestao-clientes/internal/config"
	invoicedomain "github.com/devlopes006/gestao-clientes/internal/invoice/domain"
	txdomain "github.com/devlopes006/gestao-clientes/internal/transaction/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testNow = time.Date(2025, time.October, 10, 12, 0, 0, 0, time.UTC)

func setupReportTestDB(t *testing.T) *gorm.DB {
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
	}
	for _, stmt := range ddl {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("ddl: %v", err)
		}
	}
	return db
}

func newReportService(t *testing.T, db *gorm.DB, dash cache.Dashboard) *Service {
	t.Helper()
	svc := NewService(Params{
		DB:     db,
		Log:    zap.NewNop(),
		Clock:  clock.Fixed{Instant: testNow},
		Config: config.Config{DashboardTTL: time.Minute},
		Cache:  dash,
	})
	return svc.(*Service)
}

func testAuth(orgID snowflake.ID) authdomain.AuthContext {
	return authdomain.AuthContext{UserID: 99, OrgID: orgID, Role: authdomain.RoleOwner}
}

var seedSeq snowflake.ID = 7000

func seedReportTx(t *testing.T, db *gorm.DB, orgID snowflake.ID, typ txdomain.Type, amount int64, date time.Time) {
	t.Helper()
	seedSeq++
	subtype := txdomain.SubtypeOtherIncome
	if typ == txdomain.TypeExpense {
		subtype = txdomain.SubtypeOtherExpense
	}
	row := txdomain.Transaction{
		ID: seedSeq, OrgID: orgID, Type: typ, Subtype: subtype,
		Amount: amount, Currency: "BRL", Date: date,
		Status: txdomain.StatusConfirmed, CreatedAt: date, UpdatedAt: date,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
}

func seedReportInvoice(t *testing.T, db *gorm.DB, orgID snowflake.ID, number string, status invoicedomain.Status, total int64, due time.Time, notes string) {
	t.Helper()
	seedSeq++
	row := invoicedomain.Invoice{
		ID: seedSeq, OrgID: orgID, ClientID: 1, Number: number,
		IssueDate: due.AddDate(0, 0, -10), DueDate: due,
		Total: total, Currency: "BRL", Status: status, Notes: notes,
		CreatedBy: 99, CreatedAt: testNow, UpdatedAt: testNow,
	}
	if status == invoicedomain.StatusPaid {
		row.PaidAt = &due
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
}

func TestMonthlySummaryAggregates(t *testing.T) {
	db := setupReportTestDB(t)
	svc := newReportService(t, db, nil)
	orgID := snowflake.ID(4010)
	oct := time.Date(2025, time.October, 5, 0, 0, 0, 0, time.UTC)

	seedReportTx(t, db, orgID, txdomain.TypeIncome, 100000, oct)
	seedReportTx(t, db, orgID, txdomain.TypeIncome, 25000, oct.AddDate(0, 0, 10))
	seedReportTx(t, db, orgID, txdomain.TypeExpense, 40000, oct)
	// Outside the month; must not count.
	seedReportTx(t, db, orgID, txdomain.TypeIncome, 999999, oct.AddDate(0, 1, 0))

	seedReportInvoice(t, db, orgID, "INV-202510-0001", invoicedomain.StatusOpen, 30000, oct.AddDate(0, 0, 20), "")
	seedReportInvoice(t, db, orgID, "INV-202510-0002", invoicedomain.StatusOverdue, 45000, oct, "")
	seedReportInvoice(t, db, orgID, "INV-202510-0003", invoicedomain.StatusPaid, 125000, oct, "")

	summary, err := svc.Monthly(context.Background(), testAuth(orgID), 2025, 10)
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if summary.Income != 125000 || summary.Expense != 40000 || summary.Net != 85000 {
		t.Fatalf("summary = %+v, want income 125000 expense 40000 net 85000", summary)
	}
	if summary.OpenBalance != 30000 || summary.OverdueBalance != 45000 {
		t.Fatalf("balances = %+v, want open 30000 overdue 45000", summary)
	}
	if summary.InvoicesIssued != 3 || summary.InvoicesPaid != 1 || summary.InvoicesOverdue != 1 {
		t.Fatalf("counts = %+v", summary)
	}
}

func TestDashboardUsesCacheUntilInvalidated(t *testing.T) {
	db := setupReportTestDB(t)
	dash := cache.NewMemoryDashboard()
	svc := newReportService(t, db, dash)
	orgID := snowflake.ID(4020)
	auth := testAuth(orgID)
	ctx := context.Background()

	seedReportTx(t, db, orgID, txdomain.TypeIncome, 50000, testNow)

	first, cached, err := svc.Dashboard(ctx, auth)
	if err != nil {
		t.Fatalf("first dashboard: %v", err)
	}
	if cached {
		t.Fatal("first dashboard served from cache")
	}
	if first.MonthIncome != 50000 {
		t.Fatalf("month income = %d, want 50000", first.MonthIncome)
	}

	// A write after caching is invisible until invalidation.
	seedReportTx(t, db, orgID, txdomain.TypeIncome, 10000, testNow)
	second, cached, err := svc.Dashboard(ctx, auth)
	if err != nil {
		t.Fatalf("second dashboard: %v", err)
	}
	if !cached || second.MonthIncome != 50000 {
		t.Fatalf("second dashboard = %+v cached=%v, want stale cache hit", second, cached)
	}

	dash.Invalidate(ctx, orgID.String())
	third, cached, err := svc.Dashboard(ctx, auth)
	if err != nil {
		t.Fatalf("third dashboard: %v", err)
	}
	if cached || third.MonthIncome != 60000 {
		t.Fatalf("third dashboard = %+v cached=%v, want fresh 60000", third, cached)
	}
}

func TestExportInvoicesCSVRoundTrip(t *testing.T) {
	db := setupReportTestDB(t)
	svc := newReportService(t, db, nil)
	orgID := snowflake.ID(4030)
	oct := time.Date(2025, time.October, 15, 0, 0, 0, 0, time.UTC)

	seedReportInvoice(t, db, orgID, "INV-202510-0001", invoicedomain.StatusOpen, 123456, oct, "")
	seedReportInvoice(t, db, orgID, "INV-202510-0002", invoicedomain.StatusPaid, 50000, oct, `says "urgent", handle first`)
	seedReportInvoice(t, db, orgID, "INV-202510-0003", invoicedomain.StatusOverdue, 7500, oct.AddDate(0, 0, -10), "")

	payload, err := svc.ExportInvoicesCSV(context.Background(), testAuth(orgID), invoicedomain.ListInvoiceRequest{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(payload))).ReadAll()
	if err != nil {
		t.Fatalf("parse exported csv: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("csv rows = %d, want header + 3", len(records))
	}
	if records[0][0] != "number" || records[0][5] != "total" {
		t.Fatalf("header = %v", records[0])
	}

	byNumber := map[string][]string{}
	for _, rec := range records[1:] {
		byNumber[rec[0]] = rec
	}
	first := byNumber["INV-202510-0001"]
	if first[5] != "1234.56" {
		t.Fatalf("total rendered as %q, want decimal string 1234.56", first[5])
	}
	if first[4] != "2025-10-15" {
		t.Fatalf("due date rendered as %q, want ISO date", first[4])
	}
	if quoted := byNumber["INV-202510-0002"]; quoted[8] != `says "urgent", handle first` {
		t.Fatalf("quoted note round-tripped as %q", quoted[8])
	}
}
