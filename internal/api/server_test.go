package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bscore/diagnostic-core/internal/api/ws"
	"github.com/bscore/diagnostic-core/internal/config"
	"github.com/bscore/diagnostic-core/internal/core"
	"github.com/bscore/diagnostic-core/pkg/cache"
	"github.com/bscore/diagnostic-core/pkg/logger"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := *config.GetDefaultConfig()
	log := logger.New("error")
	svc := core.New(cfg, cache.NewNoopValkeyCache(log), log)
	hub := ws.NewHub(log)
	return NewServer(cfg.HTTPServer, cfg.Auth, svc, hub, log)
}

func TestNewServerConstructs(t *testing.T) {
	s := newTestServer(t)
	require.NotNil(t, s)
	require.NotNil(t, s.router)
}

func TestHealthEndpointIsPublic(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedEndpointRejectsWithoutInternalAuth(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/actions/history", nil)
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
