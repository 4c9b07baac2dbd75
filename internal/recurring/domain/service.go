package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
)

// CreateCostItemRequest defines a new recurring cost template.
type CreateCostItemRequest struct {
	Name       string
	Amount     int64
	Currency   string
	Category   string
	DayOfMonth int
}

// UpdateCostItemRequest mutates a template; nil pointers leave the
// current value untouched.
type UpdateCostItemRequest struct {
	Name       *string
	Amount     *int64
	Category   *string
	DayOfMonth *int
	Active     *bool
}

// SubscribeRequest attaches a cost item to a client.
type SubscribeRequest struct {
	CostItemID     snowflake.ID
	ClientID       snowflake.ID
	AmountOverride *int64
}

// MaterializedCost is one expense transaction produced by the run.
type MaterializedCost struct {
	CostItemID    snowflake.ID  `json:"cost_item_id"`
	ClientID      *snowflake.ID `json:"client_id,omitempty"`
	TransactionID snowflake.ID  `json:"transaction_id"`
	Amount        int64         `json:"amount"`
}

// MaterializationError is a per-item failure that did not stop the run.
type MaterializationError struct {
	CostItemID snowflake.ID  `json:"cost_item_id"`
	ClientID   *snowflake.ID `json:"client_id,omitempty"`
	Error      string        `json:"error"`
}

// MaterializationResult reports what the monthly run did. Skipped
// counts (item, client, month) tuples already materialized.
type MaterializationResult struct {
	Month   string                 `json:"month"`
	Created []MaterializedCost     `json:"created"`
	Skipped int                    `json:"skipped"`
	Errors  []MaterializationError `json:"errors"`
}

// Service manages recurring cost templates and turns them into
// concrete EXPENSE transactions once per month.
type Service interface {
	CreateItem(ctx context.Context, auth authdomain.AuthContext, req CreateCostItemRequest) (CostItem, error)
	UpdateItem(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID, req UpdateCostItemRequest) (CostItem, error)
	ListItems(ctx context.Context, auth authdomain.AuthContext) ([]CostItem, error)
	DeleteItem(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) error
	Subscribe(ctx context.Context, auth authdomain.AuthContext, req SubscribeRequest) (CostSubscription, error)
	Unsubscribe(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) error
	ListSubscriptions(ctx context.Context, auth authdomain.AuthContext, costItemID snowflake.ID) ([]CostSubscription, error)
	// Materialize inserts the month's expense transactions. The
	// reference key unique index makes reruns skip, never duplicate.
	Materialize(ctx context.Context, auth authdomain.AuthContext, month time.Time) (MaterializationResult, error)
}

// ReferenceKey builds the dedupe key for one (item, client, month)
// tuple. A nil client marks an org-scoped charge.
func ReferenceKey(itemID snowflake.ID, clientID *snowflake.ID, month time.Time) string {
	scope := "org"
	if clientID != nil {
		scope = clientID.String()
	}
	return fmt.Sprintf("cost:%s:%s:%s", itemID, scope, month.Format("2006-01"))
}

var (
	ErrInvalidOrganization  = errors.New("invalid_organization")
	ErrInvalidName          = errors.New("invalid_name")
	ErrInvalidAmount        = errors.New("invalid_amount")
	ErrInvalidMonth         = errors.New("invalid_month")
	ErrCostItemNotFound     = errors.New("cost_item_not_found")
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
	ErrAlreadySubscribed    = errors.New("already_subscribed")
)
