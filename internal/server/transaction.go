package server

import (
	"net/http"
	"strings"

	"github.com/devlopes006/gestao-clientes/internal/authorization"
	txdomain "github.com/devlopes006/gestao-clientes/internal/transaction/domain"
	"github.com/devlopes006/gestao-clientes/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type createTransactionRequest struct {
	ClientID    string `json:"client_id"`
	InvoiceID   string `json:"invoice_id"`
	Type        string `json:"type"`
	Subtype     string `json:"subtype"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Method      string `json:"method"`
	Status      string `json:"status"`
}

// @Summary      Create Transaction
// @Description  Record a manual income or expense entry
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        request body createTransactionRequest true "Create Transaction Request"
// @Success      200  {object}  txdomain.Transaction
// @Router       /transactions [post]
func (s *Server) CreateTransaction(c *gin.Context) {
	if s.txSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectTransaction, authorization.ActionWrite)
	if !ok {
		return
	}

	var req createTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	clientID, err := parseOptionalID(req.ClientID)
	if err != nil {
		AbortWithError(c, newValidationError("client_id", "invalid_client_id", "invalid client_id"))
		return
	}
	invoiceID, err := parseOptionalID(req.InvoiceID)
	if err != nil {
		AbortWithError(c, newValidationError("invoice_id", "invalid_invoice_id", "invalid invoice_id"))
		return
	}
	date, err := parseOptionalTime(req.Date, false)
	if err != nil {
		AbortWithError(c, newValidationError("date", "invalid_date", "invalid date"))
		return
	}

	domainReq := txdomain.CreateTransactionRequest{
		ClientID:    clientID,
		InvoiceID:   invoiceID,
		Type:        txdomain.Type(strings.ToUpper(strings.TrimSpace(req.Type))),
		Subtype:     txdomain.Subtype(strings.ToUpper(strings.TrimSpace(req.Subtype))),
		Amount:      req.Amount,
		Currency:    strings.TrimSpace(req.Currency),
		Description: req.Description,
		Category:    strings.TrimSpace(req.Category),
		Method:      strings.TrimSpace(req.Method),
		Status:      txdomain.Status(strings.ToUpper(strings.TrimSpace(req.Status))),
	}
	if date != nil {
		domainReq.Date = *date
	}

	resp, err := s.txSvc.Create(c.Request.Context(), auth, domainReq)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Transactions
// @Description  List transactions with type/status/date filters
// @Tags         transactions
// @Produce      json
// @Param        client_id   query  string  false  "Client ID"
// @Param        type        query  string  false  "Type"
// @Param        status      query  string  false  "Status"
// @Param        from        query  string  false  "From"
// @Param        to          query  string  false  "To"
// @Param        page_token  query  string  false  "Page Token"
// @Param        page_size   query  int     false  "Page Size"
// @Success      200  {object}  txdomain.ListTransactionResponse
// @Router       /transactions [get]
func (s *Server) ListTransactions(c *gin.Context) {
	if s.txSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectTransaction, authorization.ActionRead)
	if !ok {
		return
	}

	var query struct {
		pagination.Pagination
		ClientID string `form:"client_id"`
		Type     string `form:"type"`
		Status   string `form:"status"`
		From     string `form:"from"`
		To       string `form:"to"`
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
	from, err := parseOptionalTime(query.From, false)
	if err != nil {
		AbortWithError(c, newValidationError("from", "invalid_from", "invalid from"))
		return
	}
	to, err := parseOptionalTime(query.To, true)
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_to", "invalid to"))
		return
	}

	resp, err := s.txSvc.List(c.Request.Context(), auth, txdomain.ListTransactionRequest{
		Pagination: query.Pagination,
		ClientID:   clientID,
		Type:       txdomain.Type(strings.ToUpper(strings.TrimSpace(query.Type))),
		Status:     txdomain.Status(strings.ToUpper(strings.TrimSpace(query.Status))),
		From:       from,
		To:         to,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Transaction
// @Description  Get transaction by ID
// @Tags         transactions
// @Produce      json
// @Param        id  path  string  true  "Transaction ID"
// @Success      200  {object}  txdomain.Transaction
// @Router       /transactions/{id} [get]
func (s *Server) GetTransactionByID(c *gin.Context) {
	if s.txSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectTransaction, authorization.ActionRead)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.txSvc.GetByID(c.Request.Context(), auth, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Delete Transaction
// @Description  Soft-delete a transaction; it stays restorable
// @Tags         transactions
// @Produce      json
// @Param        id  path  string  true  "Transaction ID"
// @Router       /transactions/{id} [delete]
func (s *Server) DeleteTransaction(c *gin.Context) {
	if s.txSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectTransaction, authorization.ActionWrite)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.txSvc.SoftDelete(c.Request.Context(), auth, id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary      Restore Transaction
// @Description  Undo a soft delete
// @Tags         transactions
// @Produce      json
// @Param        id  path  string  true  "Transaction ID"
// @Router       /transactions/{id}/restore [post]
func (s *Server) RestoreTransaction(c *gin.Context) {
	if s.txSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectTransaction, authorization.ActionWrite)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.txSvc.Restore(c.Request.Context(), auth, id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
