package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	"github.com/devlopes006/gestao-clientes/pkg/db/pagination"
)

// CreateClientRequest carries onboarding input.
type CreateClientRequest struct {
	Name                   string
	Email                  string
	Phone                  string
	Document               string
	ContractValue          int64
	Currency               string
	ContractStart          *time.Time
	ContractEnd            *time.Time
	PaymentDay             int
	IsInstallment          bool
	InstallmentCount       int
	InstallmentValue       *int64
	InstallmentPaymentDays []int
	Notes                  string
}

// UpdateClientRequest carries mutable fields; nil pointers leave the
// current value untouched.
type UpdateClientRequest struct {
	Name          *string
	Email         *string
	Phone         *string
	Document      *string
	ContractValue *int64
	ContractEnd   *time.Time
	PaymentDay    *int
	Notes         *string
	Active        *bool
}

// ListClientRequest narrows client listings.
type ListClientRequest struct {
	pagination.Pagination
	Name          string
	PaymentStatus PaymentStatus
	ActiveOnly    bool
}

// ListClientResponse is a page of clients.
type ListClientResponse struct {
	pagination.PageInfo
	Clients []Client `json:"clients"`
}

// Service manages clients inside the caller's org.
type Service interface {
	Create(ctx context.Context, auth authdomain.AuthContext, req CreateClientRequest) (Client, error)
	Update(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID, req UpdateClientRequest) (Client, error)
	GetByID(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) (Client, error)
	List(ctx context.Context, auth authdomain.AuthContext, req ListClientRequest) (ListClientResponse, error)
	SoftDelete(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) error
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidContract     = errors.New("invalid_contract")
	ErrInvalidPaymentDay   = errors.New("invalid_payment_day")
	ErrClientNotFound      = errors.New("client_not_found")
)
