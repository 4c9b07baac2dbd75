// Package domain holds the invoice entity and its status machine.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status is the invoice lifecycle state.
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusOpen     Status = "OPEN"
	StatusPaid     Status = "PAID"
	StatusOverdue  Status = "OVERDUE"
	StatusCanceled Status = "CANCELED"
	StatusVoid     Status = "VOID"
)

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusCanceled || s == StatusVoid
}

// Payable reports whether a payment can still be approved.
func (s Status) Payable() bool {
	return s == StatusOpen || s == StatusOverdue
}

// Invoice belongs to exactly one client and one org. Amounts are minor
// units. Rows with linked transactions are never hard-deleted.
type Invoice struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID        snowflake.ID `gorm:"not null;index;uniqueIndex:ux_invoices_org_number,priority:1" json:"org_id"`
	ClientID     snowflake.ID `gorm:"not null;index" json:"client_id"`
	Number       string       `gorm:"type:text;not null;uniqueIndex:ux_invoices_org_number,priority:2" json:"number"`
	IssueDate    time.Time    `gorm:"not null" json:"issue_date"`
	DueDate      time.Time    `gorm:"not null;index" json:"due_date"`
	Discount     int64        `gorm:"not null;default:0" json:"discount"`
	Tax          int64        `gorm:"not null;default:0" json:"tax"`
	Total        int64        `gorm:"not null" json:"total"`
	Currency     string       `gorm:"type:text;not null;default:'BRL'" json:"currency"`
	Status       Status       `gorm:"type:text;not null;default:'OPEN';index" json:"status"`
	PaidAt       *time.Time   `json:"paid_at,omitempty"`
	Notes        string       `gorm:"type:text" json:"notes,omitempty"`
	CancelReason string       `gorm:"type:text" json:"cancel_reason,omitempty"`
	CreatedBy    snowflake.ID `gorm:"not null" json:"created_by"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Items []Item `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// Item is an invoice line. Total is quantity times unit amount.
type Item struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID `gorm:"not null;index" json:"org_id"`
	InvoiceID   snowflake.ID `gorm:"not null;index" json:"invoice_id"`
	Description string       `gorm:"type:text;not null" json:"description"`
	Quantity    int64        `gorm:"not null;default:1" json:"quantity"`
	UnitAmount  int64        `gorm:"not null" json:"unit_amount"`
	Total       int64        `gorm:"not null" json:"total"`
}

// TableName sets the database table name.
func (Item) TableName() string { return "invoice_items" }

// ComputeTotal applies the invoice total rule:
// sum(items) - discount + tax.
func ComputeTotal(items []Item, discount, tax int64) int64 {
	var sum int64
	for _, item := range items {
		sum += item.Total
	}
	return sum - discount + tax
}
