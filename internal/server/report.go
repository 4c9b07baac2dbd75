package server

import (
	"net/http"
	"strings"

	"github.com/devlopes006/gestao-clientes/internal/authorization"
	invoicedomain "github.com/devlopes006/gestao-clientes/internal/invoice/domain"
	"github.com/devlopes006/gestao-clientes/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

// @Summary      Dashboard
// @Description  Serve the cached dashboard aggregate
// @Tags         reports
// @Produce      json
// @Router       /reports/dashboard [get]
func (s *Server) GetDashboard(c *gin.Context) {
	if s.reportSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectReport, authorization.ActionRead)
	if !ok {
		return
	}

	resp, cached, err := s.reportSvc.Dashboard(c.Request.Context(), auth)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp, "cached": cached})
}

// @Summary      Monthly Report
// @Description  Income, expense, net and outstanding balances for one month
// @Tags         reports
// @Produce      json
// @Param        year   query  int  true  "Year"
// @Param        month  query  int  true  "Month"
// @Router       /reports/monthly [get]
func (s *Server) GetMonthlyReport(c *gin.Context) {
	if s.reportSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectReport, authorization.ActionRead)
	if !ok {
		return
	}

	var query struct {
		Year  int `form:"year"`
		Month int `form:"month"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.reportSvc.Monthly(c.Request.Context(), auth, query.Year, query.Month)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Annual Report
// @Description  Twelve monthly summaries plus a linear income projection
// @Tags         reports
// @Produce      json
// @Param        year  query  int  true  "Year"
// @Router       /reports/annual [get]
func (s *Server) GetAnnualReport(c *gin.Context) {
	if s.reportSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectReport, authorization.ActionRead)
	if !ok {
		return
	}

	var query struct {
		Year int `form:"year"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.reportSvc.Annual(c.Request.Context(), auth, query.Year)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Export Invoices CSV
// @Description  Download matching invoices as CSV
// @Tags         reports
// @Produce      text/csv
// @Param        client_id  query  string  false  "Client ID"
// @Param        status     query  string  false  "Status"
// @Param        due_from   query  string  false  "Due From"
// @Param        due_to     query  string  false  "Due To"
// @Router       /reports/invoices.csv [get]
func (s *Server) ExportInvoicesCSV(c *gin.Context) {
	if s.reportSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectReport, authorization.ActionExport)
	if !ok {
		return
	}

	var query struct {
		pagination.Pagination
		ClientID string `form:"client_id"`
		Status   string `form:"status"`
		DueFrom  string `form:"due_from"`
		DueTo    string `form:"due_to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	clientID, err := parseOptionalID(query.ClientID)
	if err != nil {
		AbortWithError(c, newValidationError("client_id", "invalid_client_id", "invalid client_id"))
		return
	}
	dueFrom, err := parseOptionalTime(query.DueFrom, false)
	if err != nil {
		AbortWithError(c, newValidationError("due_from", "invalid_due_from", "invalid due_from"))
		return
	}
	dueTo, err := parseOptionalTime(query.DueTo, true)
	if err != nil {
		AbortWithError(c, newValidationError("due_to", "invalid_due_to", "invalid due_to"))
		return
	}

	req := invoicedomain.ListInvoiceRequest{
		Pagination: query.Pagination,
		Status:     invoicedomain.Status(strings.ToUpper(strings.TrimSpace(query.Status))),
		DueFrom:    dueFrom,
		DueTo:      dueTo,
	}
	if clientID != nil {
		req.ClientID = *clientID
	}

	payload, err := s.reportSvc.ExportInvoicesCSV(c.Request.Context(), auth, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="invoices.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", payload)
}
