package middleware

import (
	"context"
	"errors"
	"strings"

	"go_sitebuilder/internal/auth"
	"go_sitebuilder/internal/httpx"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by AuthRequired
const (
	CtxUID       = "uid"
	CtxCompanyID = "company_id"
	CtxUsername  = "username"
	CtxRole      = "role"
	CtxSessionID = "session_id"
)

// TokenVerifier checks a bearer token and returns its claims
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Claims, error)
}

// AuthRequired is a middleware that validates the bearer token and its session
func AuthRequired(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httpx.FailErr(c, httpx.ErrUnauthorized("missing authorization header"))
			c.Abort()
			return
		}

		// Check Bearer prefix
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httpx.FailErr(c, httpx.ErrUnauthorized("invalid authorization header format"))
			c.Abort()
			return
		}

		claims, err := verifier.Verify(c.Request.Context(), parts[1])
		if err != nil {
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				httpx.FailErr(c, httpx.ErrTokenExpired("token expired"))
			case errors.Is(err, auth.ErrSessionNotFound):
				httpx.FailErr(c, httpx.ErrInvalidToken("session expired or revoked"))
			default:
				httpx.FailErr(c, httpx.ErrInvalidToken("invalid token"))
			}
			c.Abort()
			return
		}

		// Set user info in context
		c.Set(CtxUID, claims.UID)
		c.Set(CtxCompanyID, claims.CompanyID)
		c.Set(CtxUsername, claims.Username)
		c.Set(CtxRole, claims.Role)
		c.Set(CtxSessionID, claims.SessionID())

		c.Next()
	}
}

// CompanyID returns the authenticated caller's company
func CompanyID(c *gin.Context) int {
	return c.GetInt(CtxCompanyID)
}
