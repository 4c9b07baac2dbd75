package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"go.uber.org/zap"
)

const authContextKey = "auth_context"

// Authenticate resolves the caller exactly once per request: an admin
// bearer token when present, otherwise the session cookie. Handlers
// read the result with currentAuth and never touch credentials.
func (s *Server) Authenticate(c *gin.Context) {
	if token, ok := bearerToken(c); ok {
		auth, err := s.adminAuthContext(token)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Set(authContextKey, auth)
		c.Next()
		return
	}

	if s.authSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	cookie, err := c.Cookie(s.cfg.SessionCookieName)
	if err != nil || strings.TrimSpace(cookie) == "" {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	auth, err := s.authSvc.Resolve(c.Request.Context(), cookie)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set(authContextKey, auth)
	c.Next()
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// adminAuthContext validates an operator-issued HS256 token. The org
// scope is an explicit claim; there is no implicit tenant.
func (s *Server) adminAuthContext(tokenString string) (authdomain.AuthContext, error) {
	if s.cfg.AdminJWTSecret == "" {
		return authdomain.AuthContext{}, ErrUnauthorized
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnauthorized
		}
		return []byte(s.cfg.AdminJWTSecret), nil
	})
	if err != nil || !token.Valid {
		return authdomain.AuthContext{}, ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return authdomain.AuthContext{}, ErrUnauthorized
	}
	rawOrg, _ := claims["org_id"].(string)
	orgID, err := snowflake.ParseString(rawOrg)
	if err != nil || orgID == 0 {
		return authdomain.AuthContext{}, ErrUnauthorized
	}

	auth := authdomain.AuthContext{OrgID: orgID, Role: authdomain.RoleOwner}
	if sub, _ := claims["sub"].(string); sub != "" {
		if userID, err := snowflake.ParseString(sub); err == nil {
			auth.UserID = userID
		}
	}
	return auth, nil
}

func currentAuth(c *gin.Context) (authdomain.AuthContext, bool) {
	value, ok := c.Get(authContextKey)
	if !ok {
		return authdomain.AuthContext{}, false
	}
	auth, ok := value.(authdomain.AuthContext)
	return auth, ok
}

// requireAuthorized fetches the caller and checks the permission table
// in one step. A false return means the request was already aborted.
func (s *Server) requireAuthorized(c *gin.Context, object, action string) (authdomain.AuthContext, bool) {
	auth, ok := currentAuth(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return authdomain.AuthContext{}, false
	}
	if s.authzSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return authdomain.AuthContext{}, false
	}
	if err := s.authzSvc.Authorize(c.Request.Context(), auth.Role, object, action); err != nil {
		s.log.Debug("authorization denied",
			zap.String("object", object),
			zap.String("action", action),
			zap.String("role", string(auth.Role)),
		)
		AbortWithError(c, err)
		return authdomain.AuthContext{}, false
	}
	return auth, true
}
