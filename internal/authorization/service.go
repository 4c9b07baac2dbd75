// Package authorization decides whether a role may perform an action on
// a resource. The permission model is a static enumerated table.
package authorization

import (
	"context"
	"errors"
	"strings"

	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
)

// Objects.
const (
	ObjectClient         = "client"
	ObjectInvoice        = "invoice"
	ObjectTransaction    = "transaction"
	ObjectInstallment    = "installment"
	ObjectCost           = "cost"
	ObjectReport         = "report"
	ObjectReconciliation = "reconciliation"
	ObjectNotification   = "notification"
	ObjectTask           = "task"
	ObjectMedia          = "media"
)

// Actions.
const (
	ActionRead    = "read"
	ActionWrite   = "write"
	ActionApprove = "approve"
	ActionCancel  = "cancel"
	ActionBatch   = "batch"
	ActionExport  = "export"
	ActionAdjust  = "adjust"
)

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidRole   = errors.New("invalid_role")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)

// Service answers permission questions for an already-resolved caller.
type Service interface {
	Authorize(ctx context.Context, role authdomain.Role, object string, action string) error
}

// memberGrants lists what a MEMBER may do. Owners are allowed
// everything; financial objects are owner-only by omission here.
var memberGrants = map[string][]string{
	ObjectClient:       {ActionRead},
	ObjectTask:         {ActionRead, ActionWrite},
	ObjectNotification: {ActionRead, ActionWrite},
	ObjectMedia:        {ActionRead, ActionWrite},
}

type tableService struct{}

// NewService builds the static-table authorizer.
func NewService() Service { return tableService{} }

func (tableService) Authorize(ctx context.Context, role authdomain.Role, object string, action string) error {
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	switch role {
	case authdomain.RoleOwner:
		return nil
	case authdomain.RoleMember:
		for _, allowed := range memberGrants[object] {
			if allowed == action {
				return nil
			}
		}
		return ErrForbidden
	default:
		return ErrInvalidRole
	}
}
