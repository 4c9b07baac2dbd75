package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	"github.com/devlopes006/gestao-clientes/internal/authorization"
	billingdomain "github.com/devlopes006/gestao-clientes/internal/billing/domain"
	invoicedomain "github.com/devlopes006/gestao-clientes/internal/invoice/domain"
	"github.com/devlopes006/gestao-clientes/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type invoiceItemRequest struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitAmount  int64  `json:"unit_amount"`
}

type createInvoiceRequest struct {
	ClientID  string               `json:"client_id"`
	Number    string               `json:"number"`
	IssueDate string               `json:"issue_date"`
	DueDate   string               `json:"due_date"`
	Items     []invoiceItemRequest `json:"items"`
	Discount  int64                `json:"discount"`
	Tax       int64                `json:"tax"`
	Currency  string               `json:"currency"`
	Notes     string               `json:"notes"`
}

// @Summary      Create Invoice
// @Description  Create an invoice; it is OPEN and payable immediately
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body createInvoiceRequest true "Create Invoice Request"
// @Success      200  {object}  invoicedomain.Invoice
// @Router       /invoices [post]
func (s *Server) CreateInvoice(c *gin.Context) {
	if s.invoiceSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectInvoice, authorization.ActionWrite)
	if !ok {
		return
	}

	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	clientID, err := snowflake.ParseString(strings.TrimSpace(req.ClientID))
	if err != nil || clientID == 0 {
		AbortWithError(c, newValidationError("client_id", "invalid_client_id", "invalid client_id"))
		return
	}
	issueDate, err := parseOptionalTime(req.IssueDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("issue_date", "invalid_issue_date", "invalid issue_date"))
		return
	}
	dueDate, err := parseOptionalTime(req.DueDate, true)
	if err != nil || dueDate == nil {
		AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
		return
	}

	items := make([]invoicedomain.ItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, invoicedomain.ItemInput{
			Description: strings.TrimSpace(item.Description),
			Quantity:    item.Quantity,
			UnitAmount:  item.UnitAmount,
		})
	}

	domainReq := invoicedomain.CreateInvoiceRequest{
		ClientID: clientID,
		Number:   strings.TrimSpace(req.Number),
		DueDate:  *dueDate,
		Items:    items,
		Discount: req.Discount,
		Tax:      req.Tax,
		Currency: strings.TrimSpace(req.Currency),
		Notes:    req.Notes,
	}
	if issueDate != nil {
		domainReq.IssueDate = *issueDate
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), auth, domainReq)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Invoices
// @Description  List invoices with status/date filters
// @Tags         invoices
// @Produce      json
// @Param        client_id   query  string  false  "Client ID"
// @Param        status      query  string  false  "Status"
// @Param        due_from    query  string  false  "Due From"
// @Param        due_to      query  string  false  "Due To"
// @Param        page_token  query  string  false  "Page Token"
// @Param        page_size   query  int     false  "Page Size"
// @Success      200  {object}  invoicedomain.ListInvoiceResponse
// @Router       /invoices [get]
func (s *Server) ListInvoices(c *gin.Context) {
	if s.invoiceSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectInvoice, authorization.ActionRead)
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

	resp, err := s.invoiceSvc.List(c.Request.Context(), auth, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Invoice
// @Description  Get invoice by ID
// @Tags         invoices
// @Produce      json
// @Param        id  path  string  true  "Invoice ID"
// @Success      200  {object}  invoicedomain.Invoice
// @Router       /invoices/{id} [get]
func (s *Server) GetInvoiceByID(c *gin.Context) {
	if s.invoiceSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectInvoice, authorization.ActionRead)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), auth, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type closeInvoiceRequest struct {
	Reason string `json:"reason"`
}

// @Summary      Cancel Invoice
// @Description  Cancel an unpaid invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id       path  string              true   "Invoice ID"
// @Param        request  body  closeInvoiceRequest false  "Cancel Request"
// @Router       /invoices/{id}/cancel [post]
func (s *Server) CancelInvoice(c *gin.Context) {
	if s.invoiceSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	s.closeInvoice(c, authorization.ActionCancel, s.invoiceSvc.Cancel)
}

// @Summary      Void Invoice
// @Description  Void a paid invoice after the fact
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id       path  string              true   "Invoice ID"
// @Param        request  body  closeInvoiceRequest false  "Void Request"
// @Router       /invoices/{id}/void [post]
func (s *Server) VoidInvoice(c *gin.Context) {
	if s.invoiceSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	s.closeInvoice(c, authorization.ActionCancel, s.invoiceSvc.Void)
}

type closeInvoiceFn func(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID, reason string) (invoicedomain.Invoice, error)

// Cancel and void share everything but the service call.
func (s *Server) closeInvoice(c *gin.Context, action string, transition closeInvoiceFn) {
	auth, ok := s.requireAuthorized(c, authorization.ObjectInvoice, action)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req closeInvoiceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	resp, err := transition(c.Request.Context(), auth, id, strings.TrimSpace(req.Reason))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type approvePaymentRequest struct {
	PaidAt string `json:"paid_at"`
	Method string `json:"method"`
	Notes  string `json:"notes"`
}

// @Summary      Approve Invoice Payment
// @Description  Record the payment, its income transaction and the installment confirmation atomically; repeat approvals return the existing rows
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id       path  string                 true   "Invoice ID"
// @Param        request  body  approvePaymentRequest  false  "Approve Payment Request"
// @Success      200  {object}  billingdomain.PaymentResult
// @Router       /invoices/{id}/approve-payment [post]
func (s *Server) ApproveInvoicePayment(c *gin.Context) {
	if s.billingSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectInvoice, authorization.ActionApprove)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req approvePaymentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}
	paidAt, err := parseOptionalTime(req.PaidAt, false)
	if err != nil {
		AbortWithError(c, newValidationError("paid_at", "invalid_paid_at", "invalid paid_at"))
		return
	}

	resp, err := s.billingSvc.RecordInvoicePayment(c.Request.Context(), auth, billingdomain.RecordPaymentRequest{
		InvoiceID: id,
		PaidAt:    paidAt,
		Method:    strings.TrimSpace(req.Method),
		Notes:     req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type generateMonthlyRequest struct {
	Month string `json:"month"`
}

// @Summary      Generate Monthly Invoices
// @Description  Produce the month's invoices for every active client; skipped clients are reported with reasons
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body generateMonthlyRequest true "Generate Monthly Request"
// @Success      200  {object}  billingdomain.MonthlyGenerationResult
// @Router       /invoices/generate-monthly [post]
func (s *Server) GenerateMonthlyInvoices(c *gin.Context) {
	if s.billingSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectInvoice, authorization.ActionBatch)
	if !ok {
		return
	}

	var req generateMonthlyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	month, err := parseMonth(req.Month)
	if err != nil {
		AbortWithError(c, newValidationError("month", "invalid_month", "month must be YYYY-MM"))
		return
	}

	resp, err := s.billingSvc.GenerateMonthlyInvoices(c.Request.Context(), auth, month)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Sweep Overdue
// @Description  Flip past-due invoices and installments
// @Tags         invoices
// @Produce      json
// @Success      200  {object}  billingdomain.SweepResult
// @Router       /admin/billing/sweep-overdue [post]
func (s *Server) SweepOverdue(c *gin.Context) {
	if s.billingSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectInvoice, authorization.ActionBatch)
	if !ok {
		return
	}

	resp, err := s.billingSvc.SweepOverdue(c.Request.Context(), auth.OrgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
