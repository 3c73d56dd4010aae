package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck is a liveness probe: it never touches downstream state.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "diagnostic-core",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// ReadinessCheck reports process readiness. The core has no external
// dependency that must be dialed before serving (stats store, detector,
// correlator and orchestrator are all in-process), so readiness tracks
// liveness.
func ReadinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"service":   "diagnostic-core",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
