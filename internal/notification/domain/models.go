// Package domain holds in-app notifications.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Kind classifies the notification's origin.
type Kind string

const (
	KindPaymentConfirmed  Kind = "PAYMENT_CONFIRMED"
	KindMonthlyGeneration Kind = "MONTHLY_GENERATION"
	KindGeneral           Kind = "GENERAL"
)

// Notification is an in-app message for the org's members.
type Notification struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID  `gorm:"not null;index" json:"org_id"`
	ClientID  *snowflake.ID `gorm:"index" json:"client_id,omitempty"`
	Kind      Kind          `gorm:"type:text;not null;default:'GENERAL'" json:"kind"`
	Title     string        `gorm:"type:text;not null" json:"title"`
	Message   string        `gorm:"type:text" json:"message"`
	Read      bool          `gorm:"not null;default:false;index" json:"read"`
	CreatedAt time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Notification) TableName() string { return "notifications" }
