package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
)

// CreateNotificationRequest posts an in-app message.
type CreateNotificationRequest struct {
	ClientID *snowflake.ID
	Kind     Kind
	Title    string
	Message  string
}

// ListNotificationRequest narrows notification listings.
type ListNotificationRequest struct {
	UnreadOnly bool
	Limit      int
}

// Service manages in-app notifications.
type Service interface {
	Create(ctx context.Context, auth authdomain.AuthContext, req CreateNotificationRequest) (Notification, error)
	List(ctx context.Context, auth authdomain.AuthContext, req ListNotificationRequest) ([]Notification, error)
	UnreadCount(ctx context.Context, auth authdomain.AuthContext) (int64, error)
	MarkRead(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) error
	MarkAllRead(ctx context.Context, auth authdomain.AuthContext) error
}

var (
	ErrInvalidOrganization  = errors.New("invalid_organization")
	ErrInvalidTitle         = errors.New("invalid_title")
	ErrNotificationNotFound = errors.New("notification_not_found")
)
