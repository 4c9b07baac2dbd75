package domain

import (
	"context"
	"errors"
)

// Identity is the subject returned by the external identity provider.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// IdentityVerifier abstracts the third-party auth provider. It is a
// verified-identity oracle: given an opaque provider token it returns
// the subject or an error.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// Service exchanges provider tokens for sessions and resolves session
// cookies into an AuthContext.
type Service interface {
	SignIn(ctx context.Context, providerToken string) (Session, error)
	Resolve(ctx context.Context, sessionToken string) (AuthContext, error)
	SignOut(ctx context.Context, sessionToken string) error
}

var (
	ErrInvalidToken     = errors.New("invalid_token")
	ErrSessionNotFound  = errors.New("session_not_found")
	ErrSessionExpired   = errors.New("session_expired")
	ErrNoMembership     = errors.New("no_membership")
	ErrIdentityUnvetted = errors.New("identity_rejected")
	ErrVerifierUnset    = errors.New("identity_verifier_unavailable")
)
