package server

import (
	"errors"
	"net/http"

	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	"github.com/devlopes006/gestao-clientes/internal/authorization"
	billingdomain "github.com/devlopes006/gestao-clientes/internal/billing/domain"
	clientdomain "github.com/devlopes006/gestao-clientes/internal/client/domain"
	installmentdomain "github.com/devlopes006/gestao-clientes/internal/installment/domain"
	invoicedomain "github.com/devlopes006/gestao-clientes/internal/invoice/domain"
	mediadomain "github.com/devlopes006/gestao-clientes/internal/media/domain"
	notifdomain "github.com/devlopes006/gestao-clientes/internal/notification/domain"
	recondomain "github.com/devlopes006/gestao-clientes/internal/reconciliation/domain"
	recurringdomain "github.com/devlopes006/gestao-clientes/internal/recurring/domain"
	reportdomain "github.com/devlopes006/gestao-clientes/internal/report/domain"
	taskdomain "github.com/devlopes006/gestao-clientes/internal/task/domain"
	txdomain "github.com/devlopes006/gestao-clientes/internal/transaction/domain"
	"github.com/gin-gonic/gin"
)

// errorKind classifies an error for status mapping. Handlers and
// services never match on message strings; classification happens here
// once, against the domain sentinels.
type errorKind int

const (
	kindInternal errorKind = iota
	kindValidation
	kindUnauthorized
	kindForbidden
	kindNotFound
	// kindConflict covers state conflicts (duplicate payment link,
	// closed invoice, duplicate number). They surface as 400 with a
	// descriptive message, not 409.
	kindConflict
	kindUnavailable
)

// APIError is the wire form of a failed request.
type APIError struct {
	kind    errorKind
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *APIError) Error() string { return e.Message }

var (
	ErrUnauthorized       = &APIError{kind: kindUnauthorized, Code: "unauthorized", Message: "authentication required"}
	ErrForbidden          = &APIError{kind: kindForbidden, Code: "forbidden", Message: "insufficient permissions"}
	ErrNotFound           = &APIError{kind: kindNotFound, Code: "not_found", Message: "resource not found"}
	ErrServiceUnavailable = &APIError{kind: kindUnavailable, Code: "service_unavailable", Message: "service unavailable"}
)

func invalidRequestError() *APIError {
	return &APIError{kind: kindValidation, Code: "invalid_request", Message: "invalid request payload"}
}

func newValidationError(field, code, message string) *APIError {
	return &APIError{kind: kindValidation, Code: code, Message: message, Field: field}
}

var validationErrors = []error{
	authdomain.ErrInvalidToken,
	clientdomain.ErrInvalidName,
	clientdomain.ErrInvalidContract,
	clientdomain.ErrInvalidPaymentDay,
	invoicedomain.ErrInvalidClient,
	invoicedomain.ErrInvalidItems,
	invoicedomain.ErrInvalidDueDate,
	invoicedomain.ErrInvalidTotal,
	txdomain.ErrInvalidType,
	txdomain.ErrInvalidSubtype,
	txdomain.ErrInvalidAmount,
	billingdomain.ErrInvalidMonth,
	recurringdomain.ErrInvalidName,
	recurringdomain.ErrInvalidAmount,
	recurringdomain.ErrInvalidMonth,
	recondomain.ErrInvalidPeriod,
	reportdomain.ErrInvalidPeriod,
	notifdomain.ErrInvalidTitle,
	taskdomain.ErrInvalidTitle,
	taskdomain.ErrInvalidStatus,
	mediadomain.ErrInvalidFile,
	authorization.ErrInvalidObject,
	authorization.ErrInvalidAction,
}

// Missing org scope on the AuthContext is a broken session, not bad
// input.
var unauthorizedErrors = []error{
	authdomain.ErrSessionNotFound,
	authdomain.ErrSessionExpired,
	authdomain.ErrIdentityUnvetted,
	clientdomain.ErrInvalidOrganization,
	invoicedomain.ErrInvalidOrganization,
	txdomain.ErrInvalidOrganization,
	installmentdomain.ErrInvalidOrganization,
	billingdomain.ErrInvalidOrganization,
	recurringdomain.ErrInvalidOrganization,
	recondomain.ErrInvalidOrganization,
	reportdomain.ErrInvalidOrganization,
	notifdomain.ErrInvalidOrganization,
	taskdomain.ErrInvalidOrganization,
	mediadomain.ErrInvalidOrganization,
}

var forbiddenErrors = []error{
	authdomain.ErrNoMembership,
	authorization.ErrForbidden,
	authorization.ErrInvalidRole,
}

// Cross-tenant lookups already come back as NotFound from the
// services, so a 404 here never leaks another org's data.
var notFoundErrors = []error{
	clientdomain.ErrClientNotFound,
	invoicedomain.ErrInvoiceNotFound,
	txdomain.ErrTransactionNotFound,
	recurringdomain.ErrCostItemNotFound,
	recurringdomain.ErrSubscriptionNotFound,
	notifdomain.ErrNotificationNotFound,
	taskdomain.ErrTaskNotFound,
	mediadomain.ErrMediaNotFound,
}

var conflictErrors = []error{
	invoicedomain.ErrDuplicateNumber,
	invoicedomain.ErrInvoiceNotPayable,
	invoicedomain.ErrInvoiceAlreadyPaid,
	invoicedomain.ErrInvoiceTerminal,
	txdomain.ErrTransactionConfirmed,
	txdomain.ErrDuplicateInvoiceLink,
	installmentdomain.ErrScheduleExists,
	recurringdomain.ErrAlreadySubscribed,
}

var unavailableErrors = []error{
	authdomain.ErrVerifierUnset,
	mediadomain.ErrStorageDisabled,
}

func classify(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	for _, sentinel := range validationErrors {
		if errors.Is(err, sentinel) {
			return &APIError{kind: kindValidation, Code: sentinel.Error(), Message: sentinel.Error()}
		}
	}
	for _, sentinel := range unauthorizedErrors {
		if errors.Is(err, sentinel) {
			return &APIError{kind: kindUnauthorized, Code: sentinel.Error(), Message: "authentication required"}
		}
	}
	for _, sentinel := range forbiddenErrors {
		if errors.Is(err, sentinel) {
			return &APIError{kind: kindForbidden, Code: sentinel.Error(), Message: "insufficient permissions"}
		}
	}
	for _, sentinel := range notFoundErrors {
		if errors.Is(err, sentinel) {
			return &APIError{kind: kindNotFound, Code: sentinel.Error(), Message: "resource not found"}
		}
	}
	for _, sentinel := range conflictErrors {
		if errors.Is(err, sentinel) {
			return &APIError{kind: kindConflict, Code: sentinel.Error(), Message: sentinel.Error()}
		}
	}
	for _, sentinel := range unavailableErrors {
		if errors.Is(err, sentinel) {
			return &APIError{kind: kindUnavailable, Code: sentinel.Error(), Message: "service unavailable"}
		}
	}
	return &APIError{kind: kindInternal, Code: "internal_error", Message: "internal error"}
}

func statusFor(kind errorKind) int {
	switch kind {
	case kindValidation, kindConflict:
		return http.StatusBadRequest
	case kindUnauthorized:
		return http.StatusUnauthorized
	case kindForbidden:
		return http.StatusForbidden
	case kindNotFound:
		return http.StatusNotFound
	case kindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// AbortWithError classifies err and writes the error envelope. It is
// the only place errors become HTTP statuses.
func AbortWithError(c *gin.Context, err error) {
	apiErr := classify(err)
	if apiErr.kind == kindInternal {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(statusFor(apiErr.kind), gin.H{"error": apiErr})
}
