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

// CreateTransactionRequest records a manual income or expense entry.
type CreateTransactionRequest struct {
	ClientID    *snowflake.ID
	InvoiceID   *snowflake.ID
	Type        Type
	Subtype     Subtype
	Amount      int64
	Currency    string
	Date        time.Time
	Description string
	Category    string
	Method      string
	Status      Status
}

// ListTransactionRequest narrows transaction listings.
type ListTransactionRequest struct {
	pagination.Pagination
	ClientID *snowflake.ID
	Type     Type
	Status   Status
	From     *time.Time
	To       *time.Time
}

// ListTransactionResponse is a page of transactions.
type ListTransactionResponse struct {
	pagination.PageInfo
	Transactions []Transaction `json:"transactions"`
}

// Service manages financial records.
type Service interface {
	Create(ctx context.Context, auth authdomain.AuthContext, req CreateTransactionRequest) (Transaction, error)
	GetByID(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) (Transaction, error)
	List(ctx context.Context, auth authdomain.AuthContext, req ListTransactionRequest) (ListTransactionResponse, error)
	SoftDelete(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) error
	Restore(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) error
	// FindConfirmedIncomeForInvoice backs the payment idempotency
	// check: at most one CONFIRMED INCOME row may link an invoice.
	FindConfirmedIncomeForInvoice(ctx context.Context, db *gorm.DB, orgID, invoiceID snowflake.ID) (*Transaction, error)
	// InsertTx participates in the billing orchestrator's transaction.
	InsertTx(ctx context.Context, tx *gorm.DB, row *Transaction) error
}

var (
	ErrInvalidOrganization  = errors.New("invalid_organization")
	ErrInvalidType          = errors.New("invalid_type")
	ErrInvalidSubtype       = errors.New("invalid_subtype")
	ErrInvalidAmount        = errors.New("invalid_amount")
	ErrTransactionNotFound  = errors.New("transaction_not_found")
	ErrTransactionConfirmed = errors.New("transaction_already_confirmed")
	ErrDuplicateInvoiceLink = errors.New("duplicate_invoice_payment")
)
