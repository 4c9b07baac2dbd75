package server

import (
	"net/http"
	"strings"

	"github.com/devlopes006/gestao-clientes/internal/authorization"
	notifdomain "github.com/devlopes006/gestao-clientes/internal/notification/domain"
	"github.com/gin-gonic/gin"
)

type createNotificationRequest struct {
	ClientID string `json:"client_id"`
	Kind     string `json:"kind"`
	Title    string `json:"title"`
	Message  string `json:"message"`
}

// @Summary      Create Notification
// @Description  Post an in-app message
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Param        request body createNotificationRequest true "Create Notification Request"
// @Success      200  {object}  notifdomain.Notification
// @Router       /notifications [post]
func (s *Server) CreateNotification(c *gin.Context) {
	if s.notifSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectNotification, authorization.ActionWrite)
	if !ok {
		return
	}

	var req createNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	clientID, err := parseOptionalID(req.ClientID)
	if err != nil {
		AbortWithError(c, newValidationError("client_id", "invalid_client_id", "invalid client_id"))
		return
	}

	resp, err := s.notifSvc.Create(c.Request.Context(), auth, notifdomain.CreateNotificationRequest{
		ClientID: clientID,
		Kind:     notifdomain.Kind(strings.ToUpper(strings.TrimSpace(req.Kind))),
		Title:    strings.TrimSpace(req.Title),
		Message:  req.Message,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Notifications
// @Description  List recent notifications, optionally unread only
// @Tags         notifications
// @Produce      json
// @Param        unread_only  query  bool  false  "Unread Only"
// @Param        limit        query  int   false  "Limit"
// @Success      200  {object}  []notifdomain.Notification
// @Router       /notifications [get]
func (s *Server) ListNotifications(c *gin.Context) {
	if s.notifSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectNotification, authorization.ActionRead)
	if !ok {
		return
	}

	var query struct {
		UnreadOnly bool `form:"unread_only"`
		Limit      int  `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.notifSvc.List(c.Request.Context(), auth, notifdomain.ListNotificationRequest{
		UnreadOnly: query.UnreadOnly,
		Limit:      query.Limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Unread Count
// @Description  Count unread notifications
// @Tags         notifications
// @Produce      json
// @Router       /notifications/unread-count [get]
func (s *Server) UnreadNotificationCount(c *gin.Context) {
	if s.notifSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectNotification, authorization.ActionRead)
	if !ok {
		return
	}

	count, err := s.notifSvc.UnreadCount(c.Request.Context(), auth)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"unread": count}})
}

// @Summary      Mark Notification Read
// @Tags         notifications
// @Produce      json
// @Param        id  path  string  true  "Notification ID"
// @Router       /notifications/{id}/read [post]
func (s *Server) MarkNotificationRead(c *gin.Context) {
	if s.notifSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectNotification, authorization.ActionWrite)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.notifSvc.MarkRead(c.Request.Context(), auth, id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary      Mark All Notifications Read
// @Tags         notifications
// @Produce      json
// @Router       /notifications/read-all [post]
func (s *Server) MarkAllNotificationsRead(c *gin.Context) {
	if s.notifSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectNotification, authorization.ActionWrite)
	if !ok {
		return
	}

	if err := s.notifSvc.MarkAllRead(c.Request.Context(), auth); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
