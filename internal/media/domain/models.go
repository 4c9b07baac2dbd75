// Package domain holds uploaded file records. Bytes live in the
// object store; only metadata is kept here.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
)

// Media is one stored object.
type Media struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID  `gorm:"not null;index" json:"org_id"`
	ClientID    *snowflake.ID `gorm:"index" json:"client_id,omitempty"`
	Key         string        `gorm:"type:text;not null" json:"key"`
	FileName    string        `gorm:"type:text;not null" json:"file_name"`
	ContentType string        `gorm:"type:text" json:"content_type"`
	Size        int64         `gorm:"not null" json:"size"`
	CreatedBy   snowflake.ID  `json:"created_by"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Media) TableName() string { return "media" }

// UploadRequest carries one file's bytes and metadata.
type UploadRequest struct {
	ClientID    *snowflake.ID
	FileName    string
	ContentType string
	Data        []byte
}

// Service stores files and hands out short-lived download URLs.
type Service interface {
	Upload(ctx context.Context, auth authdomain.AuthContext, req UploadRequest) (Media, error)
	List(ctx context.Context, auth authdomain.AuthContext, clientID *snowflake.ID) ([]Media, error)
	// PresignedURL returns a time-limited GET link for the object.
	PresignedURL(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) (string, error)
	Delete(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) error
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidFile         = errors.New("invalid_file")
	ErrMediaNotFound       = errors.New("media_not_found")
	ErrStorageDisabled     = errors.New("storage_not_configured")
)
