// Package domain defines the reconciliation service: read-only
// financial audits, target-driven adjustments and the month date
// normalization pass.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	txdomain "github.com/devlopes006/gestao-clientes/internal/transaction/domain"
)

// Finding kinds reported by AuditFinancial.
const (
	FindingPaidWithoutTransaction = "paid_invoice_without_transaction"
	FindingOrphanIncome           = "orphan_income"
	FindingMultiLinkedInvoice     = "multi_linked_invoice"
)

// Finding is one anomaly flagged by the financial audit. Orphan income
// may be a legitimate manual entry; the audit only surfaces it.
type Finding struct {
	Kind          string        `json:"kind"`
	InvoiceID     *snowflake.ID `json:"invoice_id,omitempty"`
	TransactionID *snowflake.ID `json:"transaction_id,omitempty"`
	Amount        int64         `json:"amount,omitempty"`
	Detail        string        `json:"detail,omitempty"`
}

// AuditReport is the read-only result of AuditFinancial.
type AuditReport struct {
	Year     int       `json:"year"`
	Months   []int     `json:"months"`
	Findings []Finding `json:"findings"`
}

// ReconcileRequest carries the external ground truth for one month.
// Nil targets leave that side untouched.
type ReconcileRequest struct {
	Year          int
	Month         int
	TargetIncome  *int64
	TargetExpense *int64
	Notes         string
}

// ReconcileResult reports recorded totals, the deltas against the
// targets and the adjusting entries written to close them.
type ReconcileResult struct {
	Month           string                 `json:"month"`
	RecordedIncome  int64                  `json:"recorded_income"`
	RecordedExpense int64                  `json:"recorded_expense"`
	IncomeDelta     int64                  `json:"income_delta"`
	ExpenseDelta    int64                  `json:"expense_delta"`
	Adjustments     []txdomain.Transaction `json:"adjustments"`
}

// NormalizeResult counts the rows moved by each window rule.
type NormalizeResult struct {
	Month         string `json:"month"`
	PulledForward int64  `json:"pulled_forward"`
	PulledBack    int64  `json:"pulled_back"`
	ClampedFuture int64  `json:"clamped_future"`
}

// NormalizeWindow is how far outside the month a date may sit and
// still be pulled into it.
const NormalizeWindow = 7 * 24 * time.Hour

// Service audits and repairs the org's financial records.
type Service interface {
	// AuditFinancial is read-only: it flags PAID invoices without a
	// linked transaction, INCOME rows without an invoice and invoices
	// linked by more than one transaction.
	AuditFinancial(ctx context.Context, auth authdomain.AuthContext, year int, months []int) (AuditReport, error)
	// ReconcileMonth writes adjusting entries for the delta between
	// recorded totals and the given targets. Every adjustment carries
	// a before/after snapshot in the audit log.
	ReconcileMonth(ctx context.Context, auth authdomain.AuthContext, req ReconcileRequest) (ReconcileResult, error)
	// NormalizeMonth pulls near-miss transaction dates into the month
	// and clamps far-future dates to today. Original dates are
	// snapshotted to the audit log before any row changes.
	NormalizeMonth(ctx context.Context, auth authdomain.AuthContext, year, month int) (NormalizeResult, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidPeriod       = errors.New("invalid_period")
)
