package server

import (
	"net/http"

	"github.com/devlopes006/gestao-clientes/internal/authorization"
	recondomain "github.com/devlopes006/gestao-clientes/internal/reconciliation/domain"
	"github.com/gin-gonic/gin"
)

// @Summary      Financial Audit
// @Description  Flag paid invoices without transactions, orphan income and multi-linked invoices; read-only
// @Tags         reconciliation
// @Produce      json
// @Param        year    query  int    true   "Year"
// @Param        months  query  []int  false  "Months"
// @Success      200  {object}  recondomain.AuditReport
// @Router       /admin/financial/audit [get]
func (s *Server) AuditFinancial(c *gin.Context) {
	if s.reconSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectReconciliation, authorization.ActionRead)
	if !ok {
		return
	}

	var query struct {
		Year   int   `form:"year"`
		Months []int `form:"months"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.reconSvc.AuditFinancial(c.Request.Context(), auth, query.Year, query.Months)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type reconcileMonthRequest struct {
	Year          int    `json:"year"`
	Month         int    `json:"month"`
	TargetIncome  *int64 `json:"target_income"`
	TargetExpense *int64 `json:"target_expense"`
	Notes         string `json:"notes"`
}

// @Summary      Reconcile Month
// @Description  Write adjusting entries for the delta between recorded totals and the given targets
// @Tags         reconciliation
// @Accept       json
// @Produce      json
// @Param        request body reconcileMonthRequest true "Reconcile Request"
// @Success      200  {object}  recondomain.ReconcileResult
// @Router       /admin/financial/reconcile-month [post]
func (s *Server) ReconcileMonth(c *gin.Context) {
	if s.reconSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectReconciliation, authorization.ActionAdjust)
	if !ok {
		return
	}

	var req reconcileMonthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.reconSvc.ReconcileMonth(c.Request.Context(), auth, recondomain.ReconcileRequest{
		Year:          req.Year,
		Month:         req.Month,
		TargetIncome:  req.TargetIncome,
		TargetExpense: req.TargetExpense,
		Notes:         req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type normalizeMonthRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// @Summary      Normalize Month Dates
// @Description  Pull near-miss transaction dates into the month and clamp future dates to today; originals are snapshotted to the audit log
// @Tags         reconciliation
// @Accept       json
// @Produce      json
// @Param        request body normalizeMonthRequest true "Normalize Request"
// @Success      200  {object}  recondomain.NormalizeResult
// @Router       /admin/financial/normalize-month [post]
func (s *Server) NormalizeMonth(c *gin.Context) {
	if s.reconSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectReconciliation, authorization.ActionAdjust)
	if !ok {
		return
	}

	var req normalizeMonthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.reconSvc.NormalizeMonth(c.Request.Context(), auth, req.Year, req.Month)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
