// Package domain holds the append-only audit trail. Reconciliation
// adjustments and date normalizations store their before/after
// snapshots here, which is what makes them manually reversible.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ActorType represents who triggered an action.
type ActorType string

const (
	ActorTypeUser   ActorType = "user"
	ActorTypeSystem ActorType = "system"
)

// Well-known audit actions written by the financial subsystem.
const (
	ActionPaymentRecorded     = "billing.payment_recorded"
	ActionInvoiceCanceled     = "invoice.canceled"
	ActionInvoiceVoided       = "invoice.voided"
	ActionMonthlyGeneration   = "billing.monthly_generation"
	ActionCostMaterialization = "cost.materialization"
	ActionReconcileAdjustment = "reconciliation.adjustment"
	ActionDateNormalization   = "reconciliation.date_normalization"
)

// AuditLog is an immutable record of a financial or security action.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	OrgID      snowflake.ID      `gorm:"not null;index"`
	ActorType  ActorType         `gorm:"type:text;not null"`
	ActorID    *string           `gorm:"type:text"`
	Action     string            `gorm:"type:text;not null;index"`
	TargetType string            `gorm:"type:text;not null"`
	TargetID   *string           `gorm:"type:text;index"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }
