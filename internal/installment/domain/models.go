// Package domain holds the installment schedule entities.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status tracks an installment's lifecycle. Rows are never deleted
// once created; they are the historical record of the contract.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusLate      Status = "LATE"
)

// Installment is one payment obligation of a client contract.
type Installment struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index" json:"org_id"`
	ClientID  snowflake.ID `gorm:"not null;index;uniqueIndex:ux_installments_client_number,priority:1" json:"client_id"`
	Number    int          `gorm:"not null;uniqueIndex:ux_installments_client_number,priority:2" json:"number"`
	Amount    int64        `gorm:"not null" json:"amount"`
	Currency  string       `gorm:"type:text;not null;default:'BRL'" json:"currency"`
	DueDate   time.Time    `gorm:"not null;index" json:"due_date"`
	Status    Status       `gorm:"type:text;not null;default:'PENDING'" json:"status"`
	PaidAt    *time.Time   `json:"paid_at,omitempty"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Installment) TableName() string { return "installments" }
