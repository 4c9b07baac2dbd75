package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	"github.com/devlopes006/gestao-clientes/internal/cache"
	clientdomain "github.com/devlopes006/gestao-clientes/internal/client/domain"
	"github.com/devlopes006/gestao-clientes/internal/clock"
	"github.com/devlopes006/gestao-clientes/internal/config"
	invoicedomain "github.com/devlopes006/gestao-clientes/internal/invoice/domain"
	reportdomain "github.com/devlopes006/gestao-clientes/internal/report/domain"
	txdomain "github.com/devlopes006/gestao-clientes/internal/transaction/domain"
	"github.com/devlopes006/gestao-clientes/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	Config config.Config
	Cache  cache.Dashboard `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	ttl   time.Duration
	cache cache.Dashboard
}

func NewService(p Params) reportdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("report.service"),
		clock: p.Clock,
		ttl:   p.Config.DashboardTTL,
		cache: p.Cache,
	}
}

func (s *Service) Monthly(ctx context.Context, auth authdomain.AuthContext, year, month int) (reportdomain.MonthlySummary, error) {
	if auth.OrgID == 0 {
		return reportdomain.MonthlySummary{}, reportdomain.ErrInvalidOrganization
	}
	if year < 2000 || month < 1 || month > 12 {
		return reportdomain.MonthlySummary{}, reportdomain.ErrInvalidPeriod
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return s.buildMonthly(ctx, auth.OrgID, start)
}

func (s *Service) buildMonthly(ctx context.Context, orgID snowflake.ID, start time.Time) (reportdomain.MonthlySummary, error) {
	end := start.AddDate(0, 1, 0)
	summary := reportdomain.MonthlySummary{Month: start.Format("2006-01")}

	var err error
	if summary.Income, err = s.sumTransactions(ctx, orgID, txdomain.TypeIncome, &start, &end); err != nil {
		return reportdomain.MonthlySummary{}, err
	}
	if summary.Expense, err = s.sumTransactions(ctx, orgID, txdomain.TypeExpense, &start, &end); err != nil {
		return reportdomain.MonthlySummary{}, err
	}
	summary.Net = summary.Income - summary.Expense

	type statusAgg struct {
		Status  invoicedomain.Status
		Count   int64
		Balance int64
	}
	var aggs []statusAgg
	err = s.db.WithContext(ctx).Model(&invoicedomain.Invoice{}).
		Select("status, COUNT(*) AS count, SUM(total) AS balance").
		Where("org_id = ? AND due_date >= ? AND due_date < ?", orgID, start, end).
		Group("status").
		Scan(&aggs).Error
	if err != nil {
		return reportdomain.MonthlySummary{}, err
	}
	for _, agg := range aggs {
		switch agg.Status {
		case invoicedomain.StatusOpen:
			summary.OpenBalance += agg.Balance
		case invoicedomain.StatusOverdue:
			summary.OverdueBalance += agg.Balance
			summary.InvoicesOverdue = agg.Count
		case invoicedomain.StatusPaid:
			summary.InvoicesPaid = agg.Count
		}
		if agg.Status != invoicedomain.StatusCanceled && agg.Status != invoicedomain.StatusVoid {
			summary.InvoicesIssued += agg.Count
		}
	}
	return summary, nil
}

func (s *Service) Annual(ctx context.Context, auth authdomain.AuthContext, year int) (reportdomain.AnnualReport, error) {
	if auth.OrgID == 0 {
		return reportdomain.AnnualReport{}, reportdomain.ErrInvalidOrganization
	}
	if year < 2000 {
		return reportdomain.AnnualReport{}, reportdomain.ErrInvalidPeriod
	}

	report := reportdomain.AnnualReport{Year: year, Months: make([]reportdomain.MonthlySummary, 0, 12)}
	now := s.clock.Now()
	elapsed := 0
	for month := 1; month <= 12; month++ {
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		summary, err := s.buildMonthly(ctx, auth.OrgID, start)
		if err != nil {
			return reportdomain.AnnualReport{}, err
		}
		report.Months = append(report.Months, summary)
		report.TotalIncome += summary.Income
		report.TotalExpense += summary.Expense
		if !start.AddDate(0, 1, 0).After(now) {
			elapsed++
		}
	}
	report.Net = report.TotalIncome - report.TotalExpense

	// Linear projection: elapsed months' average carried to year end.
	report.ProjectedIncome = report.TotalIncome
	if elapsed > 0 && elapsed < 12 {
		report.ProjectedIncome = report.TotalIncome / int64(elapsed) * 12
	}
	return report, nil
}

func (s *Service) Dashboard(ctx context.Context, auth authdomain.AuthContext) (reportdomain.Dashboard, bool, error) {
	if auth.OrgID == 0 {
		return reportdomain.Dashboard{}, false, reportdomain.ErrInvalidOrganization
	}

	if s.cache != nil {
		if payload, ok := s.cache.Get(ctx, auth.OrgID.String()); ok {
			var cached reportdomain.Dashboard
			if err := json.Unmarshal(payload, &cached); err == nil {
				return cached, true, nil
			}
			// A poisoned entry just means a recompute.
			s.cache.Invalidate(ctx, auth.OrgID.String())
		}
	}

	now := s.clock.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	dash := reportdomain.Dashboard{GeneratedAt: now}
	var err error
	if dash.MonthIncome, err = s.sumTransactions(ctx, auth.OrgID, txdomain.TypeIncome, &monthStart, &monthEnd); err != nil {
		return reportdomain.Dashboard{}, false, err
	}
	if dash.MonthExpense, err = s.sumTransactions(ctx, auth.OrgID, txdomain.TypeExpense, &monthStart, &monthEnd); err != nil {
		return reportdomain.Dashboard{}, false, err
	}
	dash.MonthNet = dash.MonthIncome - dash.MonthExpense

	if dash.OpenInvoices, dash.OpenBalance, err = s.invoiceAgg(ctx, auth.OrgID, invoicedomain.StatusOpen); err != nil {
		return reportdomain.Dashboard{}, false, err
	}
	if dash.OverdueInvoices, dash.OverdueBalance, err = s.invoiceAgg(ctx, auth.OrgID, invoicedomain.StatusOverdue); err != nil {
		return reportdomain.Dashboard{}, false, err
	}

	err = s.db.WithContext(ctx).Model(&clientdomain.Client{}).
		Where("org_id = ? AND active = ?", auth.OrgID, true).
		Count(&dash.ActiveClients).Error
	if err != nil {
		return reportdomain.Dashboard{}, false, err
	}
	err = s.db.WithContext(ctx).Model(&clientdomain.Client{}).
		Where("org_id = ? AND active = ? AND payment_status = ?",
			auth.OrgID, true, clientdomain.PaymentStatusPending).
		Count(&dash.PendingClients).Error
	if err != nil {
		return reportdomain.Dashboard{}, false, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(dash); err == nil {
			s.cache.Set(ctx, auth.OrgID.String(), payload, s.ttl)
		}
	}
	return dash, false, nil
}

func (s *Service) ExportInvoicesCSV(ctx context.Context, auth authdomain.AuthContext, req invoicedomain.ListInvoiceRequest) ([]byte, error) {
	if auth.OrgID == 0 {
		return nil, reportdomain.ErrInvalidOrganization
	}

	query := s.db.WithContext(ctx).Model(&invoicedomain.Invoice{}).Where("org_id = ?", auth.OrgID)
	if req.ClientID != 0 {
		query = query.Where("client_id = ?", req.ClientID)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.DueFrom != nil {
		query = query.Where("due_date >= ?", *req.DueFrom)
	}
	if req.DueTo != nil {
		query = query.Where("due_date < ?", *req.DueTo)
	}

	var rows []invoicedomain.Invoice
	if err := query.Order("due_date ASC, number ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"number", "client_id", "status", "issue_date", "due_date", "total", "currency", "paid_at", "notes"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, inv := range rows {
		paidAt := ""
		if inv.PaidAt != nil {
			paidAt = inv.PaidAt.UTC().Format("2006-01-02")
		}
		record := []string{
			inv.Number,
			inv.ClientID.String(),
			string(inv.Status),
			inv.IssueDate.UTC().Format("2006-01-02"),
			inv.DueDate.UTC().Format("2006-01-02"),
			money.New(inv.Total, inv.Currency).DecimalString(),
			inv.Currency,
			paidAt,
			inv.Notes,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Service) sumTransactions(ctx context.Context, orgID snowflake.ID, typ txdomain.Type, from, to *time.Time) (int64, error) {
	query := s.db.WithContext(ctx).Model(&txdomain.Transaction{}).
		Select("SUM(amount)").
		Where("org_id = ? AND type = ? AND status = ?", orgID, typ, txdomain.StatusConfirmed)
	if from != nil {
		query = query.Where("date >= ?", *from)
	}
	if to != nil {
		query = query.Where("date < ?", *to)
	}
	var total *int64
	if err := query.Scan(&total).Error; err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (s *Service) invoiceAgg(ctx context.Context, orgID snowflake.ID, status invoicedomain.Status) (int64, int64, error) {
	type agg struct {
		Count   int64
		Balance *int64
	}
	var row agg
	err := s.db.WithContext(ctx).Model(&invoicedomain.Invoice{}).
		Select("COUNT(*) AS count, SUM(total) AS balance").
		Where("org_id = ? AND status = ?", orgID, status).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	balance := int64(0)
	if row.Balance != nil {
		balance = *row.Balance
	}
	return row.Count, balance, nil
}
