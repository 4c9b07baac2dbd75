package server

import (
	"net/http"
	"strings"

	"github.com/devlopes006/gestao-clientes/internal/authorization"
	taskdomain "github.com/devlopes006/gestao-clientes/internal/task/domain"
	"github.com/gin-gonic/gin"
)

type createTaskRequest struct {
	ClientID    string `json:"client_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	AssigneeID  string `json:"assignee_id"`
	DueDate     string `json:"due_date"`
	AutoAssign  bool   `json:"auto_assign"`
}

// @Summary      Create Task
// @Description  Open a work item; auto_assign hands it to the least-loaded member
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        request body createTaskRequest true "Create Task Request"
// @Success      200  {object}  taskdomain.Task
// @Router       /tasks [post]
func (s *Server) CreateTask(c *gin.Context) {
	if s.taskSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectTask, authorization.ActionWrite)
	if !ok {
		return
	}

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	clientID, err := parseOptionalID(req.ClientID)
	if err != nil {
		AbortWithError(c, newValidationError("client_id", "invalid_client_id", "invalid client_id"))
		return
	}
	assigneeID, err := parseOptionalID(req.AssigneeID)
	if err != nil {
		AbortWithError(c, newValidationError("assignee_id", "invalid_assignee_id", "invalid assignee_id"))
		return
	}
	dueDate, err := parseOptionalTime(req.DueDate, true)
	if err != nil {
		AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
		return
	}

	resp, err := s.taskSvc.Create(c.Request.Context(), auth, taskdomain.CreateTaskRequest{
		ClientID:    clientID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		AssigneeID:  assigneeID,
		DueDate:     dueDate,
		AutoAssign:  req.AutoAssign,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	AssigneeID  *string `json:"assignee_id"`
	DueDate     *string `json:"due_date"`
}

// @Summary      Update Task
// @Description  Patch mutable task fields
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id       path  string             true  "Task ID"
// @Param        request  body  updateTaskRequest  true  "Update Task Request"
// @Success      200  {object}  taskdomain.Task
// @Router       /tasks/{id} [patch]
func (s *Server) UpdateTask(c *gin.Context) {
	if s.taskSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectTask, authorization.ActionWrite)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	domainReq := taskdomain.UpdateTaskRequest{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		status := taskdomain.Status(strings.ToUpper(strings.TrimSpace(*req.Status)))
		domainReq.Status = &status
	}
	if req.AssigneeID != nil {
		assigneeID, err := parseOptionalID(*req.AssigneeID)
		if err != nil {
			AbortWithError(c, newValidationError("assignee_id", "invalid_assignee_id", "invalid assignee_id"))
			return
		}
		domainReq.AssigneeID = assigneeID
	}
	if req.DueDate != nil {
		dueDate, err := parseOptionalTime(*req.DueDate, true)
		if err != nil {
			AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
			return
		}
		domainReq.DueDate = dueDate
	}

	resp, err := s.taskSvc.Update(c.Request.Context(), auth, id, domainReq)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Tasks
// @Description  List tasks with assignee/status filters
// @Tags         tasks
// @Produce      json
// @Param        client_id    query  string  false  "Client ID"
// @Param        assignee_id  query  string  false  "Assignee ID"
// @Param        status       query  string  false  "Status"
// @Param        open_only    query  bool    false  "Open Only"
// @Success      200  {object}  []taskdomain.Task
// @Router       /tasks [get]
func (s *Server) ListTasks(c *gin.Context) {
	if s.taskSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectTask, authorization.ActionRead)
	if !ok {
		return
	}

	var query struct {
		ClientID   string `form:"client_id"`
		AssigneeID string `form:"assignee_id"`
		Status     string `form:"status"`
		OpenOnly   bool   `form:"open_only"`
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
	assigneeID, err := parseOptionalID(query.AssigneeID)
	if err != nil {
		AbortWithError(c, newValidationError("assignee_id", "invalid_assignee_id", "invalid assignee_id"))
		return
	}

	resp, err := s.taskSvc.List(c.Request.Context(), auth, taskdomain.ListTaskRequest{
		ClientID:   clientID,
		AssigneeID: assigneeID,
		Status:     taskdomain.Status(strings.ToUpper(strings.TrimSpace(query.Status))),
		OpenOnly:   query.OpenOnly,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Task
// @Tags         tasks
// @Produce      json
// @Param        id  path  string  true  "Task ID"
// @Success      200  {object}  taskdomain.Task
// @Router       /tasks/{id} [get]
func (s *Server) GetTaskByID(c *gin.Context) {
	if s.taskSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectTask, authorization.ActionRead)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.taskSvc.GetByID(c.Request.Context(), auth, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Delete Task
// @Tags         tasks
// @Produce      json
// @Param        id  path  string  true  "Task ID"
// @Router       /tasks/{id} [delete]
func (s *Server) DeleteTask(c *gin.Context) {
	if s.taskSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	auth, ok := s.requireAuthorized(c, authorization.ObjectTask, authorization.ActionWrite)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.taskSvc.Delete(c.Request.Context(), auth, id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
