package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/devlopes006/gestao-clientes/internal/authorization"
	recurringdomain "github.com/devlopes006/gestao-clientes/internal/recurring/domain"
	"github.com/gin-gonic/gin"
)

type createCostItemRequest struct {
	Name       string `json:"name"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	Category   string `json:"category"`
	DayOfMonth int    `json:"day_of_month"`
}

// @Summary      Create Cost Item
// @Description  Define a recurring cost template
// @Tags         costs
// @Accept       json
// @Produce      json
// @Param        request body createCostItemRequest true "Create Cost Item Request"
// @Success      200  {object}  recurringdomain.CostItem
// @Router       /cost-items [post]
func (s *Server) CreateCostItem(c *gin.Context) {
	if s.recurringSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectCost, authorization.ActionWrite)
	if !ok {
		return
	}

	var req createCostItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.recurringSvc.CreateItem(c.Request.Context(), auth, recurringdomain.CreateCostItemRequest{
		Name:       strings.TrimSpace(req.Name),
		Amount:     req.Amount,
		Currency:   strings.TrimSpace(req.Currency),
		Category:   strings.TrimSpace(req.Category),
		DayOfMonth: req.DayOfMonth,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateCostItemRequest struct {
	Name       *string `json:"name"`
	Amount     *int64  `json:"amount"`
	Category   *string `json:"category"`
	DayOfMonth *int    `json:"day_of_month"`
	Active     *bool   `json:"active"`
}

// @Summary      Update Cost Item
// @Description  Patch a recurring cost template
// @Tags         costs
// @Accept       json
// @Produce      json
// @Param        id       path  string                 true  "Cost Item ID"
// @Param        request  body  updateCostItemRequest  true  "Update Cost Item Request"
// @Success      200  {object}  recurringdomain.CostItem
// @Router       /cost-items/{id} [patch]
func (s *Server) UpdateCostItem(c *gin.Context) {
	if s.recurringSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectCost, authorization.ActionWrite)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateCostItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.recurringSvc.UpdateItem(c.Request.Context(), auth, id, recurringdomain.UpdateCostItemRequest{
		Name:       req.Name,
		Amount:     req.Amount,
		Category:   req.Category,
		DayOfMonth: req.DayOfMonth,
		Active:     req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Cost Items
// @Description  List recurring cost templates
// @Tags         costs
// @Produce      json
// @Success      200  {object}  []recurringdomain.CostItem
// @Router       /cost-items [get]
func (s *Server) ListCostItems(c *gin.Context) {
	if s.recurringSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectCost, authorization.ActionRead)
	if !ok {
		return
	}

	resp, err := s.recurringSvc.ListItems(c.Request.Context(), auth)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Delete Cost Item
// @Description  Remove a template and its subscriptions
// @Tags         costs
// @Produce      json
// @Param        id  path  string  true  "Cost Item ID"
// @Router       /cost-items/{id} [delete]
func (s *Server) DeleteCostItem(c *gin.Context) {
	if s.recurringSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectCost, authorization.ActionWrite)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.recurringSvc.DeleteItem(c.Request.Context(), auth, id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary      List Cost Subscriptions
// @Description  List the clients attached to a cost item
// @Tags         costs
// @Produce      json
// @Param        id  path  string  true  "Cost Item ID"
// @Success      200  {object}  []recurringdomain.CostSubscription
// @Router       /cost-items/{id}/subscriptions [get]
func (s *Server) ListCostSubscriptions(c *gin.Context) {
	if s.recurringSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectCost, authorization.ActionRead)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.recurringSvc.ListSubscriptions(c.Request.Context(), auth, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type subscribeCostRequest struct {
	CostItemID     string `json:"cost_item_id"`
	ClientID       string `json:"client_id"`
	AmountOverride *int64 `json:"amount_override"`
}

// @Summary      Subscribe Client To Cost
// @Description  Attach a client to a recurring cost, optionally overriding the amount
// @Tags         costs
// @Accept       json
// @Produce      json
// @Param        request body subscribeCostRequest true "Subscribe Request"
// @Success      200  {object}  recurringdomain.CostSubscription
// @Router       /cost-subscriptions [post]
func (s *Server) SubscribeCost(c *gin.Context) {
	if s.recurringSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectCost, authorization.ActionWrite)
	if !ok {
		return
	}

	var req subscribeCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	costItemID, err := snowflake.ParseString(strings.TrimSpace(req.CostItemID))
	if err != nil || costItemID == 0 {
		AbortWithError(c, newValidationError("cost_item_id", "invalid_cost_item_id", "invalid cost_item_id"))
		return
	}
	clientID, err := snowflake.ParseString(strings.TrimSpace(req.ClientID))
	if err != nil || clientID == 0 {
		AbortWithError(c, newValidationError("client_id", "invalid_client_id", "invalid client_id"))
		return
	}

	resp, err := s.recurringSvc.Subscribe(c.Request.Context(), auth, recurringdomain.SubscribeRequest{
		CostItemID:     costItemID,
		ClientID:       clientID,
		AmountOverride: req.AmountOverride,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Unsubscribe Client From Cost
// @Description  Detach a client from a recurring cost
// @Tags         costs
// @Produce      json
// @Param        id  path  string  true  "Subscription ID"
// @Router       /cost-subscriptions/{id} [delete]
func (s *Server) UnsubscribeCost(c *gin.Context) {
	if s.recurringSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectCost, authorization.ActionWrite)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.recurringSvc.Unsubscribe(c.Request.Context(), auth, id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type materializeCostsRequest struct {
	Month string `json:"month"`
}

// @Summary      Materialize Monthly Costs
// @Description  Turn active cost templates into the month's expense transactions; reruns skip existing charges
// @Tags         costs
// @Accept       json
// @Produce      json
// @Param        request body materializeCostsRequest true "Materialize Request"
// @Success      200  {object}  recurringdomain.MaterializationResult
// @Router       /cost-subscriptions/materialize [post]
func (s *Server) MaterializeCosts(c *gin.Context) {
	if s.recurringSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectCost, authorization.ActionBatch)
	if !ok {
		return
	}

	var req materializeCostsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	month, err := parseMonth(req.Month)
	if err != nil {
		AbortWithError(c, newValidationError("month", "invalid_month", "month must be YYYY-MM"))
		return
	}

	resp, err := s.recurringSvc.Materialize(c.Request.Context(), auth, month)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
