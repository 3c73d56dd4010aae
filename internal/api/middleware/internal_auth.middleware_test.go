package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/bscore/diagnostic-core/internal/config"
	"github.com/bscore/diagnostic-core/internal/security"
	"github.com/bscore/diagnostic-core/pkg/logger"
)

func testRouter(authConfig config.AuthConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(InternalAuthMiddleware(authConfig, logger.New("error")))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/api/v1/actions/history", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestInternalAuthAllowsPublicHealthPath(t *testing.T) {
	router := testRouter(config.AuthConfig{InternalSharedSecret: "secret"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInternalAuthRejectsMissingHeader(t *testing.T) {
	router := testRouter(config.AuthConfig{InternalSharedSecret: "secret"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/actions/history", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInternalAuthAllowsValidHeader(t *testing.T) {
	router := testRouter(config.AuthConfig{InternalSharedSecret: "secret"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/actions/history", nil)
	req.Header.Set("X-Internal-Auth", security.Sign("rca-service", "internal", "secret", time.Now()))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
