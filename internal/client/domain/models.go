// Package domain holds the Client entity and its contract terms.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PaymentStatus is derived from the client's outstanding invoices.
type PaymentStatus string

const (
	PaymentStatusConfirmed PaymentStatus = "CONFIRMED"
	PaymentStatusPending   PaymentStatus = "PENDING"
)

// Client is a tenant-scoped customer of the organization. Rows are
// soft-deleted to preserve financial history.
type Client struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID    snowflake.ID `gorm:"not null;index" json:"org_id"`
	Name     string       `gorm:"type:text;not null" json:"name"`
	Email    string       `gorm:"type:text" json:"email"`
	Phone    string       `gorm:"type:text" json:"phone"`
	Document string       `gorm:"type:text" json:"document"`

	// Contract terms.
	ContractValue          int64                    `gorm:"not null;default:0" json:"contract_value"`
	Currency               string                   `gorm:"type:text;not null;default:'BRL'" json:"currency"`
	ContractStart          *time.Time               `json:"contract_start,omitempty"`
	ContractEnd            *time.Time               `json:"contract_end,omitempty"`
	PaymentDay             int                      `gorm:"not null;default:0" json:"payment_day"`
	IsInstallment          bool                     `gorm:"not null;default:false" json:"is_installment"`
	InstallmentCount       int                      `gorm:"not null;default:0" json:"installment_count"`
	InstallmentValue       *int64                   `json:"installment_value,omitempty"`
	InstallmentPaymentDays datatypes.JSONSlice[int] `gorm:"type:jsonb" json:"installment_payment_days,omitempty"`

	PaymentStatus PaymentStatus  `gorm:"type:text;not null;default:'PENDING'" json:"payment_status"`
	Active        bool           `gorm:"not null;default:true" json:"active"`
	Notes         string         `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the database table name.
func (Client) TableName() string { return "clients" }

// HasContractTerms reports whether the contract data needed for billing
// is present.
func (c Client) HasContractTerms() bool {
	return c.ContractValue > 0 && c.ContractStart != nil
}
