package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"flower_shop/logger"
	"flower_shop/services"

	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

// Authenticator resolves a bearer token to the claims of an active account.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*services.Claims, error)
}

// Auth rejects requests without a valid bearer token and stores the
// account's claims in the context.
func Auth(tokens Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := tokens.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		switch {
		case err == nil:
		case errors.Is(err, services.ErrForbidden):
			logger.LogDebug("rejected token from %s: %v", c.ClientIP(), err)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account is deactivated"})
			return
		case errors.Is(err, services.ErrUnauthorized):
			logger.LogDebug("rejected token from %s: %v", c.ClientIP(), err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		default:
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireAdmin must run after Auth, whose claims carry the stored role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok || !claims.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "administrator role required"})
			return
		}
		c.Next()
	}
}

// CurrentClaims returns the claims stored by Auth.
func CurrentClaims(c *gin.Context) (*services.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*services.Claims)
	return claims, ok
}
