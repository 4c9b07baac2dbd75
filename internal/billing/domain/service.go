// Package domain defines the billing orchestrator: the only place
// where an invoice payment, its income transaction, the installment
// confirmation and the client's payment status change together.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	invoicedomain "github.com/devlopes006/gestao-clientes/internal/invoice/domain"
	txdomain "github.com/devlopes006/gestao-clientes/internal/transaction/domain"
)

// RecordPaymentRequest approves a payment against an invoice.
type RecordPaymentRequest struct {
	InvoiceID snowflake.ID
	PaidAt    *time.Time
	Method    string
	Notes     string
}

// PaymentResult is the committed outcome of a payment approval.
// Duplicate reports an approval that found the payment already
// recorded and returned the existing rows unchanged.
type PaymentResult struct {
	Invoice     invoicedomain.Invoice `json:"invoice"`
	Transaction txdomain.Transaction  `json:"transaction"`
	Duplicate   bool                  `json:"duplicate,omitempty"`
}

// GeneratedInvoice summarizes one invoice produced by the monthly run.
type GeneratedInvoice struct {
	ClientID  snowflake.ID `json:"client_id"`
	InvoiceID snowflake.ID `json:"invoice_id"`
	Number    string       `json:"number"`
	Amount    int64        `json:"amount"`
	DueDate   time.Time    `json:"due_date"`
}

// BlockedClient is a client the monthly run skipped, with the reason.
type BlockedClient struct {
	ClientID snowflake.ID `json:"client_id"`
	Name     string       `json:"name"`
	Reason   string       `json:"reason"`
}

// GenerationError is a per-client failure that did not stop the run.
type GenerationError struct {
	ClientID snowflake.ID `json:"client_id"`
	Name     string       `json:"name"`
	Error    string       `json:"error"`
}

// MonthlyGenerationResult buckets every client the run looked at. A
// partially failed run still reports what it produced.
type MonthlyGenerationResult struct {
	Month   string             `json:"month"`
	Success []GeneratedInvoice `json:"success"`
	Blocked []BlockedClient    `json:"blocked"`
	Errors  []GenerationError  `json:"errors"`
}

// Blocked-client reasons reported by the monthly run.
const (
	BlockReasonMissingContract  = "missing_contract_terms"
	BlockReasonAlreadyInvoiced  = "already_invoiced"
	BlockReasonNoInstallmentDue = "no_installment_due"
	BlockReasonContractEnded    = "contract_ended"
)

// SweepResult counts the rows flipped by the overdue sweep.
type SweepResult struct {
	InvoicesOverdue  int64 `json:"invoices_overdue"`
	InstallmentsLate int64 `json:"installments_late"`
}

// Service coordinates the payment and monthly billing flows. All the
// multi-table mutations it performs commit atomically.
type Service interface {
	// RecordInvoicePayment marks the invoice paid, records the income
	// transaction, confirms the client's next installment and refreshes
	// the client's payment status in one transaction. Approving the
	// same invoice twice is idempotent: the second call returns the
	// existing rows unchanged with Duplicate set.
	RecordInvoicePayment(ctx context.Context, auth authdomain.AuthContext, req RecordPaymentRequest) (PaymentResult, error)
	// GenerateMonthlyInvoices produces the month's invoices for every
	// active client, skipping clients already invoiced or without
	// contract terms. Per-client failures never abort the run.
	GenerateMonthlyInvoices(ctx context.Context, auth authdomain.AuthContext, month time.Time) (MonthlyGenerationResult, error)
	// SweepOverdue flips past-due invoices and installments.
	SweepOverdue(ctx context.Context, orgID snowflake.ID) (SweepResult, error)
}

// Notifier delivers payment confirmations after commit. Delivery is
// best effort; failures are logged and never roll anything back.
type Notifier interface {
	PaymentConfirmed(ctx context.Context, orgID snowflake.ID, result PaymentResult)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidMonth        = errors.New("invalid_month")
)
