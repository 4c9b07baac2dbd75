// Package domain holds the work items tracked per client.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Status is the task's board column.
type Status string

const (
	StatusTodo  Status = "TODO"
	StatusDoing Status = "DOING"
	StatusDone  Status = "DONE"
)

// Open reports whether the task still counts against its assignee.
func (s Status) Open() bool { return s == StatusTodo || s == StatusDoing }

// Task is one work item, optionally tied to a client and assigned to
// an org member.
type Task struct {
	ID          snowflake.ID   `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID   `gorm:"not null;index" json:"org_id"`
	ClientID    *snowflake.ID  `gorm:"index" json:"client_id,omitempty"`
	Title       string         `gorm:"type:text;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	Status      Status         `gorm:"type:text;not null;default:'TODO';index" json:"status"`
	AssigneeID  *snowflake.ID  `gorm:"index" json:"assignee_id,omitempty"`
	DueDate     *time.Time     `json:"due_date,omitempty"`
	CreatedBy   snowflake.ID   `json:"created_by"`
	CreatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the database table name.
func (Task) TableName() string { return "tasks" }
