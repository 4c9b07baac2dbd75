// Package domain holds the income/expense transaction records.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Type separates money coming in from money going out.
type Type string

const (
	TypeIncome  Type = "INCOME"
	TypeExpense Type = "EXPENSE"
)

// Subtype refines the transaction's origin.
type Subtype string

const (
	SubtypeInvoicePayment Subtype = "INVOICE_PAYMENT"
	SubtypeOtherIncome    Subtype = "OTHER_INCOME"
	SubtypeInternalCost   Subtype = "INTERNAL_COST"
	SubtypeFixedExpense   Subtype = "FIXED_EXPENSE"
	SubtypeOtherExpense   Subtype = "OTHER_EXPENSE"
)

// Status is the transaction's confirmation state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// Transaction is a financial record. CONFIRMED rows are never mutated
// afterwards except for soft-delete restore. A partial unique index on
// (org_id, invoice_id) for CONFIRMED INCOME rows backs the payment
// idempotency guarantee.
type Transaction struct {
	ID           snowflake.ID   `gorm:"primaryKey" json:"id"`
	OrgID        snowflake.ID   `gorm:"not null;index" json:"org_id"`
	ClientID     *snowflake.ID  `gorm:"index" json:"client_id,omitempty"`
	InvoiceID    *snowflake.ID  `gorm:"index" json:"invoice_id,omitempty"`
	Type         Type           `gorm:"type:text;not null;index" json:"type"`
	Subtype      Subtype        `gorm:"type:text;not null" json:"subtype"`
	Amount       int64          `gorm:"not null" json:"amount"`
	Currency     string         `gorm:"type:text;not null;default:'BRL'" json:"currency"`
	Date         time.Time      `gorm:"not null;index" json:"date"`
	Description  string         `gorm:"type:text" json:"description,omitempty"`
	Category     string         `gorm:"type:text" json:"category,omitempty"`
	Method       string         `gorm:"type:text" json:"method,omitempty"`
	Status       Status         `gorm:"type:text;not null;default:'CONFIRMED';index" json:"status"`
	ReferenceKey *string        `gorm:"type:text" json:"reference_key,omitempty"`
	CreatedBy    snowflake.ID   `json:"created_by"`
	CreatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the database table name.
func (Transaction) TableName() string { return "transactions" }
