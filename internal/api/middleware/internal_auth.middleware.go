package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bscore/diagnostic-core/internal/config"
	"github.com/bscore/diagnostic-core/internal/security"
	"github.com/bscore/diagnostic-core/pkg/logger"
)

// publicPaths never require X-Internal-Auth.
var publicPaths = map[string]bool{
	"/health": true,
	"/ready":  true,
}

// InternalAuthMiddleware enforces the HMAC service-to-service boundary
// check (spec.md §6) on every route except health/readiness.
func InternalAuthMiddleware(authConfig config.AuthConfig, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if publicPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		header := c.GetHeader("X-Internal-Auth")
		identity, ok := security.VerifyIdentity(header, authConfig.InternalSharedSecret, authConfig.MaxClockSkew, log)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status": "error",
				"error":  "internal authentication required",
			})
			c.Abort()
			return
		}

		c.Set("caller_service", identity.Service)
		c.Set("caller_role", identity.Role)
		c.Next()
	}
}
