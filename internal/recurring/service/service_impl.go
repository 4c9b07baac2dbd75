package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/devlopes006/gestao-clientes/internal/audit/domain"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	"github.com/devlopes006/gestao-clientes/internal/clock"
	recurringdomain "github.com/devlopes006/gestao-clientes/internal/recurring/domain"
	txdomain "github.com/devlopes006/gestao-clientes/internal/transaction/domain"
	"github.com/devlopes006/gestao-clientes/pkg/money"
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
	Audit auditdomain.Service
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	audit auditdomain.Service
}

func NewService(p Params) recurringdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("recurring.service"),
		genID: p.GenID,
		clock: p.Clock,
		audit: p.Audit,
	}
}

func (s *Service) CreateItem(ctx context.Context, auth authdomain.AuthContext, req recurringdomain.CreateCostItemRequest) (recurringdomain.CostItem, error) {
	if auth.OrgID == 0 {
		return recurringdomain.CostItem{}, recurringdomain.ErrInvalidOrganization
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return recurringdomain.CostItem{}, recurringdomain.ErrInvalidName
	}
	if req.Amount <= 0 {
		return recurringdomain.CostItem{}, recurringdomain.ErrInvalidAmount
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = money.DefaultCurrency
	}
	day := req.DayOfMonth
	if day < 1 || day > 31 {
		day = 1
	}

	now := s.clock.Now()
	row := recurringdomain.CostItem{
		ID:         s.genID.Generate(),
		OrgID:      auth.OrgID,
		Name:       name,
		Amount:     req.Amount,
		Currency:   currency,
		Category:   strings.TrimSpace(req.Category),
		DayOfMonth: day,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return recurringdomain.CostItem{}, err
	}
	return row, nil
}

func (s *Service) UpdateItem(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID, req recurringdomain.UpdateCostItemRequest) (recurringdomain.CostItem, error) {
	row, err := s.getItem(ctx, auth, id)
	if err != nil {
		return recurringdomain.CostItem{}, err
	}

	updates := map[string]any{"updated_at": s.clock.Now()}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return recurringdomain.CostItem{}, recurringdomain.ErrInvalidName
		}
		updates["name"] = name
	}
	if req.Amount != nil {
		if *req.Amount <= 0 {
			return recurringdomain.CostItem{}, recurringdomain.ErrInvalidAmount
		}
		updates["amount"] = *req.Amount
	}
	if req.Category != nil {
		updates["category"] = strings.TrimSpace(*req.Category)
	}
	if req.DayOfMonth != nil && *req.DayOfMonth >= 1 && *req.DayOfMonth <= 31 {
		updates["day_of_month"] = *req.DayOfMonth
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if err := s.db.WithContext(ctx).Model(&row).Updates(updates).Error; err != nil {
		return recurringdomain.CostItem{}, err
	}
	return s.getItem(ctx, auth, id)
}

func (s *Service) ListItems(ctx context.Context, auth authdomain.AuthContext) ([]recurringdomain.CostItem, error) {
	if auth.OrgID == 0 {
		return nil, recurringdomain.ErrInvalidOrganization
	}
	var rows []recurringdomain.CostItem
	err := s.db.WithContext(ctx).
		Where("org_id = ?", auth.OrgID).
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}

func (s *Service) DeleteItem(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) error {
	row, err := s.getItem(ctx, auth, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cost_item_id = ?", row.ID).
			Delete(&recurringdomain.CostSubscription{}).Error; err != nil {
			return err
		}
		return tx.Delete(&row).Error
	})
}

func (s *Service) Subscribe(ctx context.Context, auth authdomain.AuthContext, req recurringdomain.SubscribeRequest) (recurringdomain.CostSubscription, error) {
	item, err := s.getItem(ctx, auth, req.CostItemID)
	if err != nil {
		return recurringdomain.CostSubscription{}, err
	}
	if req.AmountOverride != nil && *req.AmountOverride <= 0 {
		return recurringdomain.CostSubscription{}, recurringdomain.ErrInvalidAmount
	}

	now := s.clock.Now()
	row := recurringdomain.CostSubscription{
		ID:             s.genID.Generate(),
		OrgID:          auth.OrgID,
		CostItemID:     item.ID,
		ClientID:       req.ClientID,
		AmountOverride: req.AmountOverride,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return recurringdomain.CostSubscription{}, recurringdomain.ErrAlreadySubscribed
		}
		return recurringdomain.CostSubscription{}, err
	}
	return row, nil
}

func (s *Service) Unsubscribe(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) error {
	if auth.OrgID == 0 {
		return recurringdomain.ErrInvalidOrganization
	}
	result := s.db.WithContext(ctx).
		Where("id = ? AND org_id = ?", id, auth.OrgID).
		Delete(&recurringdomain.CostSubscription{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return recurringdomain.ErrSubscriptionNotFound
	}
	return nil
}

func (s *Service) ListSubscriptions(ctx context.Context, auth authdomain.AuthContext, costItemID snowflake.ID) ([]recurringdomain.CostSubscription, error) {
	if auth.OrgID == 0 {
		return nil, recurringdomain.ErrInvalidOrganization
	}
	var rows []recurringdomain.CostSubscription
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND cost_item_id = ?", auth.OrgID, costItemID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (s *Service) Materialize(ctx context.Context, auth authdomain.AuthContext, month time.Time) (recurringdomain.MaterializationResult, error) {
	if auth.OrgID == 0 {
		return recurringdomain.MaterializationResult{}, recurringdomain.ErrInvalidOrganization
	}
	if month.IsZero() {
		return recurringdomain.MaterializationResult{}, recurringdomain.ErrInvalidMonth
	}

	monthStart := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	result := recurringdomain.MaterializationResult{
		Month:   monthStart.Format("2006-01"),
		Created: []recurringdomain.MaterializedCost{},
		Errors:  []recurringdomain.MaterializationError{},
	}

	var items []recurringdomain.CostItem
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND active = ?", auth.OrgID, true).
		Order("name ASC").
		Find(&items).Error
	if err != nil {
		return recurringdomain.MaterializationResult{}, err
	}

	for _, item := range items {
		var subs []recurringdomain.CostSubscription
		err := s.db.WithContext(ctx).
			Where("org_id = ? AND cost_item_id = ? AND active = ?", auth.OrgID, item.ID, true).
			Find(&subs).Error
		if err != nil {
			result.Errors = append(result.Errors, recurringdomain.MaterializationError{
				CostItemID: item.ID, Error: err.Error(),
			})
			continue
		}

		if len(subs) == 0 {
			s.materializeOne(ctx, auth, item, nil, item.Amount, monthStart, &result)
			continue
		}
		for _, sub := range subs {
			clientID := sub.ClientID
			s.materializeOne(ctx, auth, item, &clientID, sub.EffectiveAmount(item), monthStart, &result)
		}
	}

	if err := s.audit.Record(ctx, auditdomain.Entry{
		OrgID:      auth.OrgID,
		ActorType:  auditdomain.ActorTypeUser,
		ActorID:    auth.UserID.String(),
		Action:     auditdomain.ActionCostMaterialization,
		TargetType: "billing_month",
		TargetID:   result.Month,
		Metadata: map[string]any{
			"created": len(result.Created),
			"skipped": result.Skipped,
			"errors":  len(result.Errors),
		},
	}); err != nil {
		s.log.Warn("materialization audit write failed", zap.Error(err))
	}
	return result, nil
}

// materializeOne inserts a single expense row; the reference key's
// unique index turns a rerun into a skip.
func (s *Service) materializeOne(ctx context.Context, auth authdomain.AuthContext, item recurringdomain.CostItem, clientID *snowflake.ID, amount int64, monthStart time.Time, result *recurringdomain.MaterializationResult) {
	refKey := recurringdomain.ReferenceKey(item.ID, clientID, monthStart)
	date := chargeDate(monthStart, item.DayOfMonth)
	now := s.clock.Now()

	row := txdomain.Transaction{
		ID:           s.genID.Generate(),
		OrgID:        auth.OrgID,
		ClientID:     clientID,
		Type:         txdomain.TypeExpense,
		Subtype:      txdomain.SubtypeInternalCost,
		Amount:       amount,
		Currency:     item.Currency,
		Date:         date,
		Description:  fmt.Sprintf("%s %s", item.Name, monthStart.Format("2006-01")),
		Category:     item.Category,
		Status:       txdomain.StatusConfirmed,
		ReferenceKey: &refKey,
		CreatedBy:    auth.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := s.db.WithContext(ctx).Create(&row).Error
	switch {
	case err == nil:
		result.Created = append(result.Created, recurringdomain.MaterializedCost{
			CostItemID:    item.ID,
			ClientID:      clientID,
			TransactionID: row.ID,
			Amount:        amount,
		})
	case errors.Is(err, gorm.ErrDuplicatedKey):
		result.Skipped++
	default:
		s.log.Warn("cost materialization failed",
			zap.String("cost_item_id", item.ID.String()), zap.Error(err))
		result.Errors = append(result.Errors, recurringdomain.MaterializationError{
			CostItemID: item.ID, ClientID: clientID, Error: err.Error(),
		})
	}
}

func chargeDate(monthStart time.Time, day int) time.Time {
	if day < 1 {
		day = 1
	}
	last := monthStart.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(monthStart.Year(), monthStart.Month(), day, 0, 0, 0, 0, time.UTC)
}

func (s *Service) getItem(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) (recurringdomain.CostItem, error) {
	if auth.OrgID == 0 {
		return recurringdomain.CostItem{}, recurringdomain.ErrInvalidOrganization
	}
	var row recurringdomain.CostItem
	err := s.db.WithContext(ctx).
		Where("id = ? AND org_id = ?", id, auth.OrgID).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return recurringdomain.CostItem{}, recurringdomain.ErrCostItemNotFound
		}
		return recurringdomain.CostItem{}, err
	}
	return row, nil
}
