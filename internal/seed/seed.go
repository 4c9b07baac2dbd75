// Package seed creates the default organization and owner account on
// first boot so a fresh install is usable immediately.
package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	"github.com/devlopes006/gestao-clientes/internal/auth/password"
	"github.com/devlopes006/gestao-clientes/internal/config"
	"gorm.io/gorm"
)

const (
	defaultOrgName   = "Main"
	defaultOwnerName = "Owner"
)

// EnsureDefaultOrgAndOwner is idempotent: reruns find the existing
// rows and change nothing.
func EnsureDefaultOrgAndOwner(db *gorm.DB, cfg config.Config) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		org, err := ensureOrg(ctx, tx, node)
		if err != nil {
			return err
		}
		user, err := ensureOwnerUser(ctx, tx, node, cfg)
		if err != nil {
			return err
		}
		return ensureOwnerMembership(ctx, tx, node, org.ID, user.ID)
	})
}

func ensureOrg(ctx context.Context, tx *gorm.DB, node *snowflake.Node) (authdomain.Org, error) {
	var org authdomain.Org
	err := tx.WithContext(ctx).Where("name = ?", defaultOrgName).First(&org).Error
	if err == nil {
		return org, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return authdomain.Org{}, err
	}

	org = authdomain.Org{
		ID:        node.Generate(),
		Name:      defaultOrgName,
		Currency:  "BRL",
		CreatedAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(&org).Error; err != nil {
		return authdomain.Org{}, err
	}
	return org, nil
}

func ensureOwnerUser(ctx context.Context, tx *gorm.DB, node *snowflake.Node, cfg config.Config) (authdomain.User, error) {
	email := strings.ToLower(strings.TrimSpace(cfg.Bootstrap.OwnerEmail))
	if email == "" {
		return authdomain.User{}, errors.New("bootstrap owner email is required")
	}

	var user authdomain.User
	err := tx.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return authdomain.User{}, err
	}

	hashed, err := password.Hash(cfg.Bootstrap.OwnerPassword)
	if err != nil {
		return authdomain.User{}, err
	}
	user = authdomain.User{
		ID:           node.Generate(),
		Email:        email,
		DisplayName:  defaultOwnerName,
		PasswordHash: &hashed,
		CreatedAt:    time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(&user).Error; err != nil {
		return authdomain.User{}, err
	}
	return user, nil
}

func ensureOwnerMembership(ctx context.Context, tx *gorm.DB, node *snowflake.Node, orgID, userID snowflake.ID) error {
	var member authdomain.OrgMember
	err := tx.WithContext(ctx).Where("org_id = ? AND user_id = ?", orgID, userID).First(&member).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	member = authdomain.OrgMember{
		ID:        node.Generate(),
		OrgID:     orgID,
		UserID:    userID,
		Role:      authdomain.RoleOwner,
		CreatedAt: time.Now().UTC(),
	}
	return tx.WithContext(ctx).Create(&member).Error
}
