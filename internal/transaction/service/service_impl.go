package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	"github.com/devlopes006/gestao-clientes/internal/clock"
	txdomain "github.com/devlopes006/gestao-clientes/internal/transaction/domain"
	"github.com/devlopes006/gestao-clientes/pkg/db/pagination"
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
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

func NewService(p Params) txdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("transaction.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) Create(ctx context.Context, auth authdomain.AuthContext, req txdomain.CreateTransactionRequest) (txdomain.Transaction, error) {
	if auth.OrgID == 0 {
		return txdomain.Transaction{}, txdomain.ErrInvalidOrganization
	}
	if req.Type != txdomain.TypeIncome && req.Type != txdomain.TypeExpense {
		return txdomain.Transaction{}, txdomain.ErrInvalidType
	}
	if !validSubtype(req.Type, req.Subtype) {
		return txdomain.Transaction{}, txdomain.ErrInvalidSubtype
	}
	if req.Amount <= 0 {
		return txdomain.Transaction{}, txdomain.ErrInvalidAmount
	}

	now := s.clock.Now()
	date := req.Date
	if date.IsZero() {
		date = now
	}
	status := req.Status
	if status == "" {
		status = txdomain.StatusConfirmed
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = money.DefaultCurrency
	}

	row := txdomain.Transaction{
		ID:          s.genID.Generate(),
		OrgID:       auth.OrgID,
		ClientID:    req.ClientID,
		InvoiceID:   req.InvoiceID,
		Type:        req.Type,
		Subtype:     req.Subtype,
		Amount:      req.Amount,
		Currency:    currency,
		Date:        date,
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		Method:      strings.TrimSpace(req.Method),
		Status:      status,
		CreatedBy:   auth.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.InsertTx(ctx, s.db, &row); err != nil {
		return txdomain.Transaction{}, err
	}
	return row, nil
}

func (s *Service) InsertTx(ctx context.Context, tx *gorm.DB, row *txdomain.Transaction) error {
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return txdomain.ErrDuplicateInvoiceLink
		}
		return err
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) (txdomain.Transaction, error) {
	if auth.OrgID == 0 {
		return txdomain.Transaction{}, txdomain.ErrInvalidOrganization
	}
	var row txdomain.Transaction
	err := s.db.WithContext(ctx).
		Where("id = ? AND org_id = ?", id, auth.OrgID).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return txdomain.Transaction{}, txdomain.ErrTransactionNotFound
		}
		return txdomain.Transaction{}, err
	}
	return row, nil
}

func (s *Service) List(ctx context.Context, auth authdomain.AuthContext, req txdomain.ListTransactionRequest) (txdomain.ListTransactionResponse, error) {
	if auth.OrgID == 0 {
		return txdomain.ListTransactionResponse{}, txdomain.ErrInvalidOrganization
	}

	query := s.db.WithContext(ctx).Model(&txdomain.Transaction{}).Where("org_id = ?", auth.OrgID)
	if req.ClientID != nil {
		query = query.Where("client_id = ?", *req.ClientID)
	}
	if req.Type != "" {
		query = query.Where("type = ?", req.Type)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.From != nil {
		query = query.Where("date >= ?", *req.From)
	}
	if req.To != nil {
		query = query.Where("date < ?", *req.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return txdomain.ListTransactionResponse{}, err
	}

	offset := req.Offset()
	limit := req.Limit()
	var rows []txdomain.Transaction
	if err := query.Order("date DESC, id DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return txdomain.ListTransactionResponse{}, err
	}

	return txdomain.ListTransactionResponse{
		PageInfo: pagination.PageInfo{
			NextPageToken: pagination.NextToken(offset, limit, total),
			TotalSize:     total,
		},
		Transactions: rows,
	}, nil
}

// SoftDelete hides the record; Restore brings it back. Both keep the
// financial history intact.
func (s *Service) SoftDelete(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) error {
	row, err := s.GetByID(ctx, auth, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&row).Error
}

func (s *Service) Restore(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) error {
	if auth.OrgID == 0 {
		return txdomain.ErrInvalidOrganization
	}
	result := s.db.WithContext(ctx).Unscoped().Model(&txdomain.Transaction{}).
		Where("id = ? AND org_id = ? AND deleted_at IS NOT NULL", id, auth.OrgID).
		Update("deleted_at", nil)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return txdomain.ErrTransactionNotFound
	}
	return nil
}

func (s *Service) FindConfirmedIncomeForInvoice(ctx context.Context, db *gorm.DB, orgID, invoiceID snowflake.ID) (*txdomain.Transaction, error) {
	if db == nil {
		db = s.db
	}
	var row txdomain.Transaction
	err := db.WithContext(ctx).
		Where("org_id = ? AND invoice_id = ? AND type = ? AND status = ?",
			orgID, invoiceID, txdomain.TypeIncome, txdomain.StatusConfirmed).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func validSubtype(t txdomain.Type, sub txdomain.Subtype) bool {
	switch t {
	case txdomain.TypeIncome:
		return sub == txdomain.SubtypeInvoicePayment || sub == txdomain.SubtypeOtherIncome
	case txdomain.TypeExpense:
		return sub == txdomain.SubtypeInternalCost ||
			sub == txdomain.SubtypeFixedExpense ||
			sub == txdomain.SubtypeOtherExpense
	default:
		return false
	}
}
