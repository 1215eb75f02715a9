// internal/api/health.go
// Health check endpoint for monitoring

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tournament-core/internal/config"
)

// HealthCheck returns a health check handler
func HealthCheck(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "healthy",
			"environment": cfg.Environment,
		})
	}
}
