package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/devlopes006/gestao-clientes/internal/authorization"
	clientdomain "github.com/devlopes006/gestao-clientes/internal/client/domain"
	"github.com/devlopes006/gestao-clientes/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type createClientRequest struct {
	Name                   string `json:"name"`
	Email                  string `json:"email"`
	Phone                  string `json:"phone"`
	Document               string `json:"document"`
	ContractValue          int64  `json:"contract_value"`
	Currency               string `json:"currency"`
	ContractStart          string `json:"contract_start"`
	ContractEnd            string `json:"contract_end"`
	PaymentDay             int    `json:"payment_day"`
	IsInstallment          bool   `json:"is_installment"`
	InstallmentCount       int    `json:"installment_count"`
	InstallmentValue       *int64 `json:"installment_value"`
	InstallmentPaymentDays []int  `json:"installment_payment_days"`
	Notes                  string `json:"notes"`
}

// @Summary      Create Client
// @Description  Onboard a client; installment clients get their schedule generated
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        request body createClientRequest true "Create Client Request"
// @Success      200  {object}  clientdomain.Client
// @Router       /clients [post]
func (s *Server) CreateClient(c *gin.Context) {
	if s.clientSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectClient, authorization.ActionWrite)
	if !ok {
		return
	}

	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	contractStart, err := parseOptionalTime(req.ContractStart, false)
	if err != nil {
		AbortWithError(c, newValidationError("contract_start", "invalid_contract_start", "invalid contract_start"))
		return
	}
	contractEnd, err := parseOptionalTime(req.ContractEnd, true)
	if err != nil {
		AbortWithError(c, newValidationError("contract_end", "invalid_contract_end", "invalid contract_end"))
		return
	}

	resp, err := s.clientSvc.Create(c.Request.Context(), auth, clientdomain.CreateClientRequest{
		Name:                   strings.TrimSpace(req.Name),
		Email:                  strings.TrimSpace(req.Email),
		Phone:                  strings.TrimSpace(req.Phone),
		Document:               strings.TrimSpace(req.Document),
		ContractValue:          req.ContractValue,
		Currency:               strings.TrimSpace(req.Currency),
		ContractStart:          contractStart,
		ContractEnd:            contractEnd,
		PaymentDay:             req.PaymentDay,
		IsInstallment:          req.IsInstallment,
		InstallmentCount:       req.InstallmentCount,
		InstallmentValue:       req.InstallmentValue,
		InstallmentPaymentDays: req.InstallmentPaymentDays,
		Notes:                  req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateClientRequest struct {
	Name          *string `json:"name"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`
	Document      *string `json:"document"`
	ContractValue *int64  `json:"contract_value"`
	ContractEnd   *string `json:"contract_end"`
	PaymentDay    *int    `json:"payment_day"`
	Notes         *string `json:"notes"`
	Active        *bool   `json:"active"`
}

// @Summary      Update Client
// @Description  Patch mutable client fields
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        id       path  string              true  "Client ID"
// @Param        request  body  updateClientRequest true  "Update Client Request"
// @Success      200  {object}  clientdomain.Client
// @Router       /clients/{id} [patch]
func (s *Server) UpdateClient(c *gin.Context) {
	if s.clientSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectClient, authorization.ActionWrite)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var contractEnd *time.Time
	if req.ContractEnd != nil {
		parsed, err := parseOptionalTime(*req.ContractEnd, true)
		if err != nil {
			AbortWithError(c, newValidationError("contract_end", "invalid_contract_end", "invalid contract_end"))
			return
		}
		contractEnd = parsed
	}

	resp, err := s.clientSvc.Update(c.Request.Context(), auth, id, clientdomain.UpdateClientRequest{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Document:      req.Document,
		ContractValue: req.ContractValue,
		ContractEnd:   contractEnd,
		PaymentDay:    req.PaymentDay,
		Notes:         req.Notes,
		Active:        req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Clients
// @Description  List clients with name/status filters
// @Tags         clients
// @Produce      json
// @Param        name            query  string  false  "Name"
// @Param        payment_status  query  string  false  "Payment Status"
// @Param        active_only     query  bool    false  "Active Only"
// @Param        page_token      query  string  false  "Page Token"
// @Param        page_size       query  int     false  "Page Size"
// @Success      200  {object}  clientdomain.ListClientResponse
// @Router       /clients [get]
func (s *Server) ListClients(c *gin.Context) {
	if s.clientSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectClient, authorization.ActionRead)
	if !ok {
		return
	}

	var query struct {
		pagination.Pagination
		Name          string `form:"name"`
		PaymentStatus string `form:"payment_status"`
		ActiveOnly    bool   `form:"active_only"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.clientSvc.List(c.Request.Context(), auth, clientdomain.ListClientRequest{
		Pagination:    query.Pagination,
		Name:          strings.TrimSpace(query.Name),
		PaymentStatus: clientdomain.PaymentStatus(strings.ToUpper(strings.TrimSpace(query.PaymentStatus))),
		ActiveOnly:    query.ActiveOnly,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Client
// @Description  Get client by ID
// @Tags         clients
// @Produce      json
// @Param        id  path  string  true  "Client ID"
// @Success      200  {object}  clientdomain.Client
// @Router       /clients/{id} [get]
func (s *Server) GetClientByID(c *gin.Context) {
	if s.clientSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectClient, authorization.ActionRead)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.clientSvc.GetByID(c.Request.Context(), auth, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Delete Client
// @Description  Soft-delete a client
// @Tags         clients
// @Produce      json
// @Param        id  path  string  true  "Client ID"
// @Router       /clients/{id} [delete]
func (s *Server) DeleteClient(c *gin.Context) {
	if s.clientSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectClient, authorization.ActionWrite)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.clientSvc.SoftDelete(c.Request.Context(), auth, id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary      List Client Installments
// @Description  List the client's installment schedule
// @Tags         clients
// @Produce      json
// @Param        id  path  string  true  "Client ID"
// @Router       /clients/{id}/installments [get]
func (s *Server) ListClientInstallments(c *gin.Context) {
	if s.installmentSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectInstallment, authorization.ActionRead)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.installmentSvc.ListByClient(c.Request.Context(), auth, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
