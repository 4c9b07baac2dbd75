package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	"github.com/devlopes006/gestao-clientes/internal/clock"
	"github.com/devlopes006/gestao-clientes/internal/config"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Cfg      config.Config
	Verifier authdomain.IdentityVerifier `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	sessionTTL time.Duration
	verifier   authdomain.IdentityVerifier
}

func NewService(p Params) authdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("auth.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		sessionTTL: p.Cfg.SessionTTL,
		verifier:   p.Verifier,
	}
}

// SignIn verifies the provider token, matches it to a local user and
// membership, and opens a session for the user's organization.
func (s *Service) SignIn(ctx context.Context, providerToken string) (authdomain.Session, error) {
	providerToken = strings.TrimSpace(providerToken)
	if providerToken == "" {
		return authdomain.Session{}, authdomain.ErrInvalidToken
	}
	if s.verifier == nil {
		return authdomain.Session{}, authdomain.ErrVerifierUnset
	}

	identity, err := s.verifier.Verify(ctx, providerToken)
	if err != nil {
		return authdomain.Session{}, authdomain.ErrIdentityUnvetted
	}
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" {
		return authdomain.Session{}, authdomain.ErrIdentityUnvetted
	}

	var user authdomain.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return authdomain.Session{}, authdomain.ErrNoMembership
		}
		return authdomain.Session{}, err
	}

	var member authdomain.OrgMember
	if err := s.db.WithContext(ctx).Where("user_id = ?", user.ID).Order("created_at").First(&member).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return authdomain.Session{}, authdomain.ErrNoMembership
		}
		return authdomain.Session{}, err
	}

	now := s.clock.Now()
	session := authdomain.Session{
		ID:        s.genID.Generate(),
		Token:     uuid.NewString(),
		UserID:    user.ID,
		OrgID:     member.OrgID,
		Role:      member.Role,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return authdomain.Session{}, err
	}

	s.log.Info("session opened",
		zap.String("user_id", user.ID.String()),
		zap.String("org_id", member.OrgID.String()),
	)
	return session, nil
}

// Resolve turns a session cookie value into an AuthContext.
func (s *Service) Resolve(ctx context.Context, sessionToken string) (authdomain.AuthContext, error) {
	sessionToken = strings.TrimSpace(sessionToken)
	if sessionToken == "" {
		return authdomain.AuthContext{}, authdomain.ErrInvalidToken
	}

	var session authdomain.Session
	if err := s.db.WithContext(ctx).Where("token = ?", sessionToken).First(&session).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return authdomain.AuthContext{}, authdomain.ErrSessionNotFound
		}
		return authdomain.AuthContext{}, err
	}
	if s.clock.Now().After(session.ExpiresAt) {
		return authdomain.AuthContext{}, authdomain.ErrSessionExpired
	}

	return authdomain.AuthContext{
		UserID: session.UserID,
		OrgID:  session.OrgID,
		Role:   session.Role,
	}, nil
}

// SignOut deletes the session row. Unknown tokens are a no-op.
func (s *Service) SignOut(ctx context.Context, sessionToken string) error {
	sessionToken = strings.TrimSpace(sessionToken)
	if sessionToken == "" {
		return nil
	}
	return s.db.WithContext(ctx).Where("token = ?", sessionToken).Delete(&authdomain.Session{}).Error
}
