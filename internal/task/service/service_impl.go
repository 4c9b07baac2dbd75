package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	"github.com/devlopes006/gestao-clientes/internal/clock"
	taskdomain "github.com/devlopes006/gestao-clientes/internal/task/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

func NewService(p Params) taskdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("task.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) Create(ctx context.Context, auth authdomain.AuthContext, req taskdomain.CreateTaskRequest) (taskdomain.Task, error) {
	if auth.OrgID == 0 {
		return taskdomain.Task{}, taskdomain.ErrInvalidOrganization
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return taskdomain.Task{}, taskdomain.ErrInvalidTitle
	}

	assignee := req.AssigneeID
	if assignee == nil && req.AutoAssign {
		picked, err := s.PickAssignee(ctx, auth.OrgID)
		if err != nil {
			return taskdomain.Task{}, err
		}
		assignee = picked
	}

	now := s.clock.Now()
	row := taskdomain.Task{
		ID:          s.genID.Generate(),
		OrgID:       auth.OrgID,
		ClientID:    req.ClientID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Status:      taskdomain.StatusTodo,
		AssigneeID:  assignee,
		DueDate:     req.DueDate,
		CreatedBy:   auth.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return taskdomain.Task{}, err
	}
	return row, nil
}

// PickAssignee spreads work: the member with the fewest open tasks
// wins, earliest membership breaking ties. No members means no
// assignment, not an error.
func (s *Service) PickAssignee(ctx context.Context, orgID snowflake.ID) (*snowflake.ID, error) {
	type candidate struct {
		UserID snowflake.ID
		Open   int64
	}
	var picked candidate
	err := s.db.WithContext(ctx).Raw(`
		SELECT m.user_id AS user_id, COUNT(t.id) AS open
		FROM organization_members m
		LEFT JOIN tasks t ON t.assignee_id = m.user_id
			AND t.org_id = m.org_id
			AND t.status IN ('TODO', 'DOING')
			AND t.deleted_at IS NULL
		WHERE m.org_id = ?
		GROUP BY m.user_id
		ORDER BY open ASC, MIN(m.created_at) ASC
		LIMIT 1`, orgID).Scan(&picked).Error
	if err != nil {
		return nil, err
	}
	if picked.UserID == 0 {
		return nil, nil
	}
	return &picked.UserID, nil
}

func (s *Service) Update(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID, req taskdomain.UpdateTaskRequest) (taskdomain.Task, error) {
	row, err := s.GetByID(ctx, auth, id)
	if err != nil {
		return taskdomain.Task{}, err
	}

	updates := map[string]any{"updated_at": s.clock.Now()}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return taskdomain.Task{}, taskdomain.ErrInvalidTitle
		}
		updates["title"] = title
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Status != nil {
		switch *req.Status {
		case taskdomain.StatusTodo, taskdomain.StatusDoing, taskdomain.StatusDone:
			updates["status"] = *req.Status
		default:
			return taskdomain.Task{}, taskdomain.ErrInvalidStatus
		}
	}
	if req.AssigneeID != nil {
		updates["assignee_id"] = *req.AssigneeID
	}
	if req.DueDate != nil {
		updates["due_date"] = *req.DueDate
	}

	if err := s.db.WithContext(ctx).Model(&row).Updates(updates).Error; err != nil {
		return taskdomain.Task{}, err
	}
	return s.GetByID(ctx, auth, id)
}

func (s *Service) GetByID(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) (taskdomain.Task, error) {
	if auth.OrgID == 0 {
		return taskdomain.Task{}, taskdomain.ErrInvalidOrganization
	}
	var row taskdomain.Task
	err := s.db.WithContext(ctx).
		Where("id = ? AND org_id = ?", id, auth.OrgID).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return taskdomain.Task{}, taskdomain.ErrTaskNotFound
		}
		return taskdomain.Task{}, err
	}
	return row, nil
}

func (s *Service) List(ctx context.Context, auth authdomain.AuthContext, req taskdomain.ListTaskRequest) ([]taskdomain.Task, error) {
	if auth.OrgID == 0 {
		return nil, taskdomain.ErrInvalidOrganization
	}
	query := s.db.WithContext(ctx).Where("org_id = ?", auth.OrgID)
	if req.ClientID != nil {
		query = query.Where("client_id = ?", *req.ClientID)
	}
	if req.AssigneeID != nil {
		query = query.Where("assignee_id = ?", *req.AssigneeID)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.OpenOnly {
		query = query.Where("status IN ?", []taskdomain.Status{taskdomain.StatusTodo, taskdomain.StatusDoing})
	}
	var rows []taskdomain.Task
	err := query.Order("due_date ASC, created_at ASC").Find(&rows).Error
	return rows, err
}

func (s *Service) Delete(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) error {
	row, err := s.GetByID(ctx, auth, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&row).Error
}
