package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	"github.com/devlopes006/gestao-clientes/pkg/db/pagination"
	"gorm.io/gorm"
)

// ItemInput is one requested invoice line.
type ItemInput struct {
	Description string
	Quantity    int64
	UnitAmount  int64
}

// CreateInvoiceRequest creates an invoice; invoices are created OPEN
// and usable immediately. Number is optional; when empty a sequential
// number is assigned.
type CreateInvoiceRequest struct {
	ClientID  snowflake.ID
	Number    string
	IssueDate time.Time
	DueDate   time.Time
	Items     []ItemInput
	Discount  int64
	Tax       int64
	Currency  string
	Notes     string
}

// ListInvoiceRequest narrows invoice listings.
type ListInvoiceRequest struct {
	pagination.Pagination
	ClientID snowflake.ID
	Status   Status
	DueFrom  *time.Time
	DueTo    *time.Time
}

// ListInvoiceResponse is a page of invoices.
type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

// Service owns invoice creation and lifecycle transitions. The *Tx
// variants participate in the billing orchestrator's transaction.
type Service interface {
	Create(ctx context.Context, auth authdomain.AuthContext, req CreateInvoiceRequest) (Invoice, error)
	CreateTx(ctx context.Context, tx *gorm.DB, auth authdomain.AuthContext, req CreateInvoiceRequest) (Invoice, error)
	GetByID(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) (Invoice, error)
	List(ctx context.Context, auth authdomain.AuthContext, req ListInvoiceRequest) (ListInvoiceResponse, error)
	// MarkOverdue flips due OPEN invoices to OVERDUE. Idempotent; safe
	// to call on every list query and from the daily sweep.
	MarkOverdue(ctx context.Context, orgID snowflake.ID) (int64, error)
	// MarkPaidTx moves a payable invoice to PAID inside the caller's
	// transaction.
	MarkPaidTx(ctx context.Context, tx *gorm.DB, orgID, id snowflake.ID, paidAt time.Time) (Invoice, error)
	Cancel(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID, reason string) (Invoice, error)
	Void(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID, reason string) (Invoice, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidClient       = errors.New("invalid_client")
	ErrInvalidItems        = errors.New("invalid_items")
	ErrInvalidDueDate      = errors.New("invalid_due_date")
	ErrInvalidTotal        = errors.New("invalid_total")
	ErrDuplicateNumber     = errors.New("duplicate_invoice_number")
	ErrInvoiceNotFound     = errors.New("invoice_not_found")
	ErrInvoiceNotPayable   = errors.New("invoice_not_payable")
	ErrInvoiceAlreadyPaid  = errors.New("invoice_already_paid")
	ErrInvoiceTerminal     = errors.New("invoice_already_closed")
)
