package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
)

// CreateTaskRequest opens a work item. A nil AssigneeID triggers the
// auto-assignment heuristic when AutoAssign is set.
type CreateTaskRequest struct {
	ClientID    *snowflake.ID
	Title       string
	Description string
	AssigneeID  *snowflake.ID
	DueDate     *time.Time
	AutoAssign  bool
}

// UpdateTaskRequest mutates a task; nil pointers leave the current
// value untouched.
type UpdateTaskRequest struct {
	Title       *string
	Description *string
	Status      *Status
	AssigneeID  *snowflake.ID
	DueDate     *time.Time
}

// ListTaskRequest narrows task listings.
type ListTaskRequest struct {
	ClientID   *snowflake.ID
	AssigneeID *snowflake.ID
	Status     Status
	OpenOnly   bool
}

// Service manages tasks. Assignment spreads work by giving new tasks
// to the member with the fewest open ones.
type Service interface {
	Create(ctx context.Context, auth authdomain.AuthContext, req CreateTaskRequest) (Task, error)
	Update(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID, req UpdateTaskRequest) (Task, error)
	GetByID(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) (Task, error)
	List(ctx context.Context, auth authdomain.AuthContext, req ListTaskRequest) ([]Task, error)
	Delete(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) error
	// PickAssignee returns the org member with the fewest open tasks.
	PickAssignee(ctx context.Context, orgID snowflake.ID) (*snowflake.ID, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidTitle        = errors.New("invalid_title")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrTaskNotFound        = errors.New("task_not_found")
)
