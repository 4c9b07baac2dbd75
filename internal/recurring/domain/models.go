// Package domain holds recurring cost templates and their
// materialization into concrete expense transactions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// CostItem is a recurring cost template. Org-scoped items materialize
// once per month; items with subscriptions materialize once per
// subscribed client per month.
type CostItem struct {
	ID         snowflake.ID   `gorm:"primaryKey" json:"id"`
	OrgID      snowflake.ID   `gorm:"not null;index" json:"org_id"`
	Name       string         `gorm:"type:text;not null" json:"name"`
	Amount     int64          `gorm:"not null" json:"amount"`
	Currency   string         `gorm:"type:text;not null;default:'BRL'" json:"currency"`
	Category   string         `gorm:"type:text" json:"category,omitempty"`
	DayOfMonth int            `gorm:"not null;default:1" json:"day_of_month"`
	Active     bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the database table name.
func (CostItem) TableName() string { return "cost_items" }

// CostSubscription attaches a cost item to a client, optionally
// overriding the template amount.
type CostSubscription struct {
	ID             snowflake.ID   `gorm:"primaryKey" json:"id"`
	OrgID          snowflake.ID   `gorm:"not null;index" json:"org_id"`
	CostItemID     snowflake.ID   `gorm:"not null;index;uniqueIndex:ux_cost_subscriptions_item_client,priority:1" json:"cost_item_id"`
	ClientID       snowflake.ID   `gorm:"not null;index;uniqueIndex:ux_cost_subscriptions_item_client,priority:2" json:"client_id"`
	AmountOverride *int64         `json:"amount_override,omitempty"`
	Active         bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the database table name.
func (CostSubscription) TableName() string { return "cost_subscriptions" }

// EffectiveAmount resolves the subscription's charge.
func (s CostSubscription) EffectiveAmount(item CostItem) int64 {
	if s.AmountOverride != nil {
		return *s.AmountOverride
	}
	return item.Amount
}
