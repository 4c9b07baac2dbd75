package authorization

import (
	"context"
	"errors"
	"testing"

	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
)

func TestAuthorizeAllowsOwnerEverything(t *testing.T) {
	svc := NewService()
	objects := []string{
		ObjectClient, ObjectInvoice, ObjectTransaction, ObjectInstallment,
		ObjectCost, ObjectReport, ObjectReconciliation, ObjectNotification,
		ObjectTask, ObjectMedia,
	}
	for _, object := range objects {
		if err := svc.Authorize(context.Background(), authdomain.RoleOwner, object, ActionWrite); err != nil {
			t.Fatalf("owner denied %s: %v", object, err)
		}
	}
}

func TestAuthorizeDeniesMemberFinancials(t *testing.T) {
	svc := NewService()
	cases := []struct {
		object string
		action string
	}{
		{ObjectInvoice, ActionWrite},
		{ObjectInvoice, ActionApprove},
		{ObjectTransaction, ActionWrite},
		{ObjectReconciliation, ActionAdjust},
		{ObjectReport, ActionExport},
	}
	for _, tc := range cases {
		err := svc.Authorize(context.Background(), authdomain.RoleMember, tc.object, tc.action)
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("member %s/%s: expected forbidden, got %v", tc.object, tc.action, err)
		}
	}
}

func TestAuthorizeAllowsMemberGrants(t *testing.T) {
	svc := NewService()
	if err := svc.Authorize(context.Background(), authdomain.RoleMember, ObjectTask, ActionWrite); err != nil {
		t.Fatalf("member task write: %v", err)
	}
	if err := svc.Authorize(context.Background(), authdomain.RoleMember, ObjectClient, ActionRead); err != nil {
		t.Fatalf("member client read: %v", err)
	}
}

func TestAuthorizeRejectsUnknownRole(t *testing.T) {
	svc := NewService()
	err := svc.Authorize(context.Background(), authdomain.Role("GUEST"), ObjectClient, ActionRead)
	if !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected invalid role, got %v", err)
	}
}
