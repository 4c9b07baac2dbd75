package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	"github.com/devlopes006/gestao-clientes/internal/authorization"
	clientdomain "github.com/devlopes006/gestao-clientes/internal/client/domain"
	invoicedomain "github.com/devlopes006/gestao-clientes/internal/invoice/domain"
	txdomain "github.com/devlopes006/gestao-clientes/internal/transaction/domain"
)

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{invoicedomain.ErrInvalidItems, http.StatusBadRequest},
		{invoicedomain.ErrDuplicateNumber, http.StatusBadRequest},
		{invoicedomain.ErrInvoiceAlreadyPaid, http.StatusBadRequest},
		{txdomain.ErrDuplicateInvoiceLink, http.StatusBadRequest},
		{authdomain.ErrSessionExpired, http.StatusUnauthorized},
		{authorization.ErrForbidden, http.StatusForbidden},
		{clientdomain.ErrClientNotFound, http.StatusNotFound},
		{invoicedomain.ErrInvoiceNotFound, http.StatusNotFound},
		{authdomain.ErrVerifierUnset, http.StatusServiceUnavailable},
		{errors.New("database exploded"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := statusFor(classify(tc.err).kind); got != tc.status {
			t.Errorf("classify(%v): status %d, want %d", tc.err, got, tc.status)
		}
	}
}

func TestClassifySeesWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("loading invoice: %w", invoicedomain.ErrInvoiceNotFound)
	if got := statusFor(classify(wrapped).kind); got != http.StatusNotFound {
		t.Fatalf("wrapped sentinel should map to 404, got %d", got)
	}
}

func TestInternalErrorsNeverLeakDetails(t *testing.T) {
	apiErr := classify(errors.New("pq: connection refused host=10.1.2.3"))
	if apiErr.Message != "internal error" {
		t.Fatalf("internal error message leaked: %q", apiErr.Message)
	}
	if apiErr.Code != "internal_error" {
		t.Fatalf("unexpected code %q", apiErr.Code)
	}
}
