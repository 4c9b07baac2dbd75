package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	clientdomain "github.com/devlopes006/gestao-clientes/internal/client/domain"
	"gorm.io/gorm"
)

// ScheduleEntry is one generated obligation before persistence.
type ScheduleEntry struct {
	Number  int
	Amount  int64
	DueDate time.Time
}

// Service generates and transitions installment schedules.
type Service interface {
	// GenerateForClientTx bulk-inserts the client's schedule inside the
	// caller's transaction. Missing contract data is a silent no-op.
	GenerateForClientTx(ctx context.Context, tx *gorm.DB, client clientdomain.Client) error
	ListByClient(ctx context.Context, auth authdomain.AuthContext, clientID snowflake.ID) ([]Installment, error)
	// ConfirmNextTx marks the earliest PENDING installment paid.
	ConfirmNextTx(ctx context.Context, tx *gorm.DB, orgID, clientID snowflake.ID, paidAt time.Time) error
	// MarkLate flips PENDING installments whose due date passed.
	MarkLate(ctx context.Context, orgID snowflake.ID) (int64, error)
	// NextPending returns the earliest unpaid installment, if any.
	NextPending(ctx context.Context, orgID, clientID snowflake.ID) (*Installment, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidClient       = errors.New("invalid_client")
	ErrScheduleExists      = errors.New("schedule_already_generated")
)
