// internal/middleware/auth.go
// Authentication middleware validates JWTs issued by the identity collaborator

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tournament-core/internal/identity"
)

// RequireAuth validates that a request carries a valid bearer token and
// sets the resolved account id in context.
func RequireAuth(id *identity.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format"})
			c.Abort()
			return
		}

		accountID, err := id.Validate(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("account_id", accountID)
		c.Set("authenticated", true)
		c.Next()
	}
}

// OptionalAuth resolves an account id if present, but doesn't require one.
func OptionalAuth(id *identity.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Set("authenticated", false)
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			if accountID, err := id.Validate(parts[1]); err == nil {
				c.Set("account_id", accountID)
				c.Set("authenticated", true)
			}
		}

		c.Next()
	}
}
