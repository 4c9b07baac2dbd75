package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	clientdomain "github.com/devlopes006/gestao-clientes/internal/client/domain"
	"github.com/devlopes006/gestao-clientes/internal/clock"
	installmentdomain "github.com/devlopes006/gestao-clientes/internal/installment/domain"
	"github.com/devlopes006/gestao-clientes/pkg/db/pagination"
	"github.com/devlopes006/gestao-clientes/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	GenID          *snowflake.Node
	Clock          clock.Clock
	InstallmentSvc installmentdomain.Service `optional:"true"`
}

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	genID          *snowflake.Node
	clock          clock.Clock
	installmentSvc installmentdomain.Service
}

func NewService(p Params) clientdomain.Service {
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("client.service"),
		genID:          p.GenID,
		clock:          p.Clock,
		installmentSvc: p.InstallmentSvc,
	}
}

// Create onboards a client and, when the contract is installment-based,
// generates its installment schedule in the same transaction.
func (s *Service) Create(ctx context.Context, auth authdomain.AuthContext, req clientdomain.CreateClientRequest) (clientdomain.Client, error) {
	if auth.OrgID == 0 {
		return clientdomain.Client{}, clientdomain.ErrInvalidOrganization
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return clientdomain.Client{}, clientdomain.ErrInvalidName
	}
	if req.ContractValue < 0 {
		return clientdomain.Client{}, clientdomain.ErrInvalidContract
	}
	if req.PaymentDay < 0 || req.PaymentDay > 31 {
		return clientdomain.Client{}, clientdomain.ErrInvalidPaymentDay
	}
	for _, day := range req.InstallmentPaymentDays {
		if day < 1 || day > 31 {
			return clientdomain.Client{}, clientdomain.ErrInvalidPaymentDay
		}
	}

	now := s.clock.Now()
	row := clientdomain.Client{
		ID:                     s.genID.Generate(),
		OrgID:                  auth.OrgID,
		Name:                   name,
		Email:                  strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:                  strings.TrimSpace(req.Phone),
		Document:               strings.TrimSpace(req.Document),
		ContractValue:          req.ContractValue,
		Currency:               normalizeCurrency(req.Currency),
		ContractStart:          req.ContractStart,
		ContractEnd:            req.ContractEnd,
		PaymentDay:             req.PaymentDay,
		IsInstallment:          req.IsInstallment,
		InstallmentCount:       req.InstallmentCount,
		InstallmentValue:       req.InstallmentValue,
		InstallmentPaymentDays: datatypes.JSONSlice[int](req.InstallmentPaymentDays),
		PaymentStatus:          clientdomain.PaymentStatusPending,
		Active:                 true,
		Notes:                  strings.TrimSpace(req.Notes),
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if s.installmentSvc != nil {
			// Missing contract data makes this a silent no-op.
			return s.installmentSvc.GenerateForClientTx(ctx, tx, row)
		}
		return nil
	})
	if err != nil {
		return clientdomain.Client{}, err
	}

	s.log.Info("client created",
		zap.String("org_id", auth.OrgID.String()),
		zap.String("client_id", row.ID.String()),
	)
	return row, nil
}

func (s *Service) Update(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID, req clientdomain.UpdateClientRequest) (clientdomain.Client, error) {
	row, err := s.GetByID(ctx, auth, id)
	if err != nil {
		return clientdomain.Client{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return clientdomain.Client{}, clientdomain.ErrInvalidName
		}
		row.Name = name
	}
	if req.Email != nil {
		row.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil {
		row.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Document != nil {
		row.Document = strings.TrimSpace(*req.Document)
	}
	if req.ContractValue != nil {
		if *req.ContractValue < 0 {
			return clientdomain.Client{}, clientdomain.ErrInvalidContract
		}
		row.ContractValue = *req.ContractValue
	}
	if req.ContractEnd != nil {
		row.ContractEnd = req.ContractEnd
	}
	if req.PaymentDay != nil {
		if *req.PaymentDay < 0 || *req.PaymentDay > 31 {
			return clientdomain.Client{}, clientdomain.ErrInvalidPaymentDay
		}
		row.PaymentDay = *req.PaymentDay
	}
	if req.Notes != nil {
		row.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.Active != nil {
		row.Active = *req.Active
	}
	row.UpdatedAt = s.clock.Now()

	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return clientdomain.Client{}, err
	}
	return row, nil
}

func (s *Service) GetByID(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) (clientdomain.Client, error) {
	if auth.OrgID == 0 {
		return clientdomain.Client{}, clientdomain.ErrInvalidOrganization
	}

	var row clientdomain.Client
	// Cross-tenant lookups must be indistinguishable from missing rows.
	err := s.db.WithContext(ctx).
		Where("id = ? AND org_id = ?", id, auth.OrgID).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return clientdomain.Client{}, clientdomain.ErrClientNotFound
		}
		return clientdomain.Client{}, err
	}
	return row, nil
}

func (s *Service) List(ctx context.Context, auth authdomain.AuthContext, req clientdomain.ListClientRequest) (clientdomain.ListClientResponse, error) {
	if auth.OrgID == 0 {
		return clientdomain.ListClientResponse{}, clientdomain.ErrInvalidOrganization
	}

	query := s.db.WithContext(ctx).Model(&clientdomain.Client{}).Where("org_id = ?", auth.OrgID)
	if name := strings.TrimSpace(req.Name); name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}
	if req.PaymentStatus != "" {
		query = query.Where("payment_status = ?", req.PaymentStatus)
	}
	if req.ActiveOnly {
		query = query.Where("active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return clientdomain.ListClientResponse{}, err
	}

	offset := req.Offset()
	limit := req.Limit()
	var rows []clientdomain.Client
	if err := query.Order("name, id").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return clientdomain.ListClientResponse{}, err
	}

	return clientdomain.ListClientResponse{
		PageInfo: pagination.PageInfo{
			NextPageToken: pagination.NextToken(offset, limit, total),
			TotalSize:     total,
		},
		Clients: rows,
	}, nil
}

// SoftDelete hides the client while preserving financial history.
func (s *Service) SoftDelete(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) error {
	row, err := s.GetByID(ctx, auth, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&row).Error
}

func normalizeCurrency(currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return money.DefaultCurrency
	}
	return currency
}
