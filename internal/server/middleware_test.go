package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	"github.com/devlopes006/gestao-clientes/internal/authorization"
	"github.com/devlopes006/gestao-clientes/internal/clock"
	"github.com/devlopes006/gestao-clientes/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"go.uber.org/zap"
)

type stubAuthService struct {
	auth authdomain.AuthContext
	err  error
}

func (s stubAuthService) SignIn(ctx context.Context, token string) (authdomain.Session, error) {
	return authdomain.Session{}, authdomain.ErrVerifierUnset
}

func (s stubAuthService) Resolve(ctx context.Context, token string) (authdomain.AuthContext, error) {
	return s.auth, s.err
}

func (s stubAuthService) SignOut(ctx context.Context, token string) error { return nil }

func newTestServer(t *testing.T, authSvc authdomain.Service) (*Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Environment:       "test",
		SessionCookieName: "agency_session",
		SessionTTL:        time.Hour,
		AdminJWTSecret:    "test-admin-secret",
	}
	srv := &Server{
		cfg:           cfg,
		log:           zap.NewNop(),
		clock:         clock.SystemClock{},
		authSvc:       authSvc,
		authzSvc:      authorization.NewService(),
		signInLimiter: newRateLimiter(10, time.Minute),
	}

	engine := gin.New()
	engine.GET("/auth/me", srv.Authenticate, srv.Me)
	return srv, engine
}

func TestAuthenticateRejectsMissingCookie(t *testing.T) {
	_, engine := newTestServer(t, stubAuthService{err: authdomain.ErrSessionNotFound})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthenticateRejectsExpiredSession(t *testing.T) {
	_, engine := newTestServer(t, stubAuthService{err: authdomain.ErrSessionExpired})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "agency_session", Value: "stale-token"})
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthenticateResolvesSessionCookie(t *testing.T) {
	auth := authdomain.AuthContext{
		UserID: snowflake.ID(11),
		OrgID:  snowflake.ID(22),
		Role:   authdomain.RoleOwner,
	}
	_, engine := newTestServer(t, stubAuthService{auth: auth})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "agency_session", Value: "good-token"})
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestAdminBearerBypass(t *testing.T) {
	// The session service errors for everything; only the bearer path
	// can succeed.
	_, engine := newTestServer(t, stubAuthService{err: authdomain.ErrSessionNotFound})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"org_id": "22",
		"sub":    "11",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-admin-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestAdminBearerRejectsBadSignature(t *testing.T) {
	_, engine := newTestServer(t, stubAuthService{err: authdomain.ErrSessionNotFound})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"org_id": "22"})
	signed, err := token.SignedString([]byte("wrong-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAdminBearerRequiresOrgClaim(t *testing.T) {
	_, engine := newTestServer(t, stubAuthService{err: authdomain.ErrSessionNotFound})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "11"})
	signed, err := token.SignedString([]byte("test-admin-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
