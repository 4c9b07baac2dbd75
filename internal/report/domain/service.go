// Package domain defines the reporting read models: monthly and
// annual summaries, the cached dashboard aggregate and CSV export.
package domain

import (
	"context"
	"errors"
	"time"

	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	invoicedomain "github.com/devlopes006/gestao-clientes/internal/invoice/domain"
)

// MonthlySummary aggregates one month of financial activity.
type MonthlySummary struct {
	Month           string `json:"month"`
	Income          int64  `json:"income"`
	Expense         int64  `json:"expense"`
	Net             int64  `json:"net"`
	OpenBalance     int64  `json:"open_balance"`
	OverdueBalance  int64  `json:"overdue_balance"`
	InvoicesIssued  int64  `json:"invoices_issued"`
	InvoicesPaid    int64  `json:"invoices_paid"`
	InvoicesOverdue int64  `json:"invoices_overdue"`
}

// AnnualReport is twelve monthly summaries plus totals and a linear
// projection of income for the months still ahead.
type AnnualReport struct {
	Year            int              `json:"year"`
	Months          []MonthlySummary `json:"months"`
	TotalIncome     int64            `json:"total_income"`
	TotalExpense    int64            `json:"total_expense"`
	Net             int64            `json:"net"`
	ProjectedIncome int64            `json:"projected_income"`
}

// Dashboard is the aggregate behind the main screen. It is served
// from a short-TTL cache and never drives further writes.
type Dashboard struct {
	MonthIncome     int64     `json:"month_income"`
	MonthExpense    int64     `json:"month_expense"`
	MonthNet        int64     `json:"month_net"`
	OpenInvoices    int64     `json:"open_invoices"`
	OpenBalance     int64     `json:"open_balance"`
	OverdueInvoices int64     `json:"overdue_invoices"`
	OverdueBalance  int64     `json:"overdue_balance"`
	ActiveClients   int64     `json:"active_clients"`
	PendingClients  int64     `json:"pending_clients"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// Service builds the read-side reports.
type Service interface {
	Monthly(ctx context.Context, auth authdomain.AuthContext, year, month int) (MonthlySummary, error)
	Annual(ctx context.Context, auth authdomain.AuthContext, year int) (AnnualReport, error)
	// Dashboard serves the cached aggregate when fresh; cached reports
	// whether the payload came from the cache.
	Dashboard(ctx context.Context, auth authdomain.AuthContext) (Dashboard, bool, error)
	// ExportInvoicesCSV renders the matching invoices as CSV: header
	// row, decimal amount strings, ISO-8601 dates.
	ExportInvoicesCSV(ctx context.Context, auth authdomain.AuthContext, req invoicedomain.ListInvoiceRequest) ([]byte, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidPeriod       = errors.New("invalid_period")
)
