package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditrepo "github.com/devlopes006/gestao-clientes/internal/audit/repository"
	auditservice "github.com/devlopes006/gestao-clientes/internal/audit/service"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	"github.com/devlopes006/gestao-clientes/internal/clock"
	recurringdomain "github.com/devlopes006/gestao-clientes/internal/recurring/domain"
	txdomain "github.com/devlopes006/gestao-clientes/internal/transaction/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testNow = time.Date(2025, time.October, 10, 12, 0, 0, 0, time.UTC)

func setupRecurringTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ddl := []string{
		`CREATE TABLE cost_items (
			id INTEGER PRIMARY KEY,
			org_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			amount BIGINT NOT NULL,
			currency TEXT NOT NULL DEFAULT 'BRL',
			category TEXT,
			day_of_month INTEGER NOT NULL DEFAULT 1,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at DATETIME
		)`,
		`CREATE TABLE cost_subscriptions (
			id INTEGER PRIMARY KEY,
			org_id BIGINT NOT NULL,
			cost_item_id BIGINT NOT NULL,
			client_id BIGINT NOT NULL,
			amount_override BIGINT,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at DATETIME,
			UNIQUE (cost_item_id, client_id)
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
		`CREATE UNIQUE INDEX ux_transactions_reference_key
			ON transactions (org_id, reference_key)
			WHERE reference_key IS NOT NULL AND deleted_at IS NULL`,
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

func newRecurringService(t *testing.T, db *gorm.DB) recurringdomain.Service {
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

func TestMaterializeCreatesExpensePerSubscription(t *testing.T) {
	db := setupRecurringTestDB(t)
	svc := newRecurringService(t, db)
	orgID := snowflake.ID(2010)
	auth := testAuth(orgID)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, auth, recurringdomain.CreateCostItemRequest{
		Name: "hosting", Amount: 5000, DayOfMonth: 3,
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	override := int64(7500)
	clientA, clientB := snowflake.ID(31), snowflake.ID(32)
	if _, err := svc.Subscribe(ctx, auth, recurringdomain.SubscribeRequest{CostItemID: item.ID, ClientID: clientA}); err != nil {
		t.Fatalf("subscribe A: %v", err)
	}
	if _, err := svc.Subscribe(ctx, auth, recurringdomain.SubscribeRequest{CostItemID: item.ID, ClientID: clientB, AmountOverride: &override}); err != nil {
		t.Fatalf("subscribe B: %v", err)
	}

	result, err := svc.Materialize(ctx, auth, testNow)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if len(result.Created) != 2 || result.Skipped != 0 || len(result.Errors) != 0 {
		t.Fatalf("result = %+v, want 2 created", result)
	}

	amounts := map[snowflake.ID]int64{}
	for _, created := range result.Created {
		if created.ClientID == nil {
			t.Fatal("created cost missing client")
		}
		amounts[*created.ClientID] = created.Amount
	}
	if amounts[clientA] != 5000 || amounts[clientB] != 7500 {
		t.Fatalf("amounts = %v, want A=5000 B=7500", amounts)
	}

	var rows []txdomain.Transaction
	if err := db.Where("org_id = ?", orgID).Find(&rows).Error; err != nil {
		t.Fatalf("load transactions: %v", err)
	}
	for _, row := range rows {
		if row.Type != txdomain.TypeExpense || row.Subtype != txdomain.SubtypeInternalCost {
			t.Fatalf("transaction classification = %s/%s", row.Type, row.Subtype)
		}
		if want := time.Date(2025, time.October, 3, 0, 0, 0, 0, time.UTC); !row.Date.Equal(want) {
			t.Fatalf("charge date = %s, want %s", row.Date, want)
		}
	}
}

func TestMaterializeRerunSkipsExistingMonth(t *testing.T) {
	db := setupRecurringTestDB(t)
	svc := newRecurringService(t, db)
	orgID := snowflake.ID(2020)
	auth := testAuth(orgID)
	ctx := context.Background()

	if _, err := svc.CreateItem(ctx, auth, recurringdomain.CreateCostItemRequest{
		Name: "office rent", Amount: 120000,
	}); err != nil {
		t.Fatalf("create item: %v", err)
	}

	first, err := svc.Materialize(ctx, auth, testNow)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(first.Created) != 1 {
		t.Fatalf("first run created = %d, want 1", len(first.Created))
	}

	second, err := svc.Materialize(ctx, auth, testNow)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(second.Created) != 0 || second.Skipped != 1 {
		t.Fatalf("second run = %+v, want 1 skipped", second)
	}

	// A different month materializes again.
	third, err := svc.Materialize(ctx, auth, testNow.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if len(third.Created) != 1 {
		t.Fatalf("third run created = %d, want 1", len(third.Created))
	}
}

func TestSubscribeTwiceConflicts(t *testing.T) {
	db := setupRecurringTestDB(t)
	svc := newRecurringService(t, db)
	auth := testAuth(2030)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, auth, recurringdomain.CreateCostItemRequest{Name: "tooling", Amount: 900})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	req := recurringdomain.SubscribeRequest{CostItemID: item.ID, ClientID: 41}
	if _, err := svc.Subscribe(ctx, auth, req); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if _, err := svc.Subscribe(ctx, auth, req); err != recurringdomain.ErrAlreadySubscribed {
		t.Fatalf("second subscribe err = %v, want ErrAlreadySubscribed", err)
	}
}
