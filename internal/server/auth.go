package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type signInRequest struct {
	ProviderToken string `json:"provider_token"`
}

// @Summary      Sign In
// @Description  Exchange an identity-provider token for a session cookie
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body signInRequest true "Sign In Request"
// @Router       /auth/sign-in [post]
func (s *Server) SignIn(c *gin.Context) {
	if s.authSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	if !s.signInLimiter.Allow(c.ClientIP()) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": gin.H{
			"code":    "rate_limited",
			"message": "too many sign-in attempts",
		}})
		return
	}

	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	session, err := s.authSvc.SignIn(c.Request.Context(), req.ProviderToken)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	maxAge := int(s.cfg.SessionTTL.Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cfg.SessionCookieName, session.Token, maxAge, "/", "", s.cfg.IsProduction(), true)
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"org_id":     session.OrgID.String(),
		"role":       session.Role,
		"expires_at": session.ExpiresAt,
	}})
}

// @Summary      Sign Out
// @Description  Delete the server-side session and clear the cookie
// @Tags         auth
// @Produce      json
// @Router       /auth/sign-out [post]
func (s *Server) SignOut(c *gin.Context) {
	if s.authSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	cookie, err := c.Cookie(s.cfg.SessionCookieName)
	if err == nil && cookie != "" {
		if err := s.authSvc.SignOut(c.Request.Context(), cookie); err != nil {
			AbortWithError(c, err)
			return
		}
	}

	c.SetCookie(s.cfg.SessionCookieName, "", -1, "/", "", s.cfg.IsProduction(), true)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary      Current Session
// @Description  Return the resolved caller identity
// @Tags         auth
// @Produce      json
// @Router       /auth/me [get]
func (s *Server) Me(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"user_id": auth.UserID.String(),
		"org_id":  auth.OrgID.String(),
		"role":    auth.Role,
	}})
}
