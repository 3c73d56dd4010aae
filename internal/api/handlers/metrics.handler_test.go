package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bscore/diagnostic-core/internal/config"
	"github.com/bscore/diagnostic-core/internal/core"
	"github.com/bscore/diagnostic-core/pkg/cache"
	"github.com/bscore/diagnostic-core/pkg/logger"
)

func newTestCoreService() *core.Service {
	cfg := *config.GetDefaultConfig()
	log := logger.New("error")
	return core.New(cfg, cache.NewNoopValkeyCache(log), log)
}

func newTestContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	c.Request = httptest.NewRequest(method, path, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func TestMetricsIngestAcceptsValidReading(t *testing.T) {
	h := NewMetricsHandler(newTestCoreService(), logger.New("error"))
	c, w := newTestContext(http.MethodPost, "/api/v1/metrics/ingest", ingestMetricRequest{
		StationID: "S1",
		Metric:    "CPU_USAGE",
		Value:     42.0,
	})

	h.Ingest(c)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "accepted", resp["status"])
}

func TestMetricsIngestRejectsOutOfRangeReading(t *testing.T) {
	h := NewMetricsHandler(newTestCoreService(), logger.New("error"))
	c, w := newTestContext(http.MethodPost, "/api/v1/metrics/ingest", ingestMetricRequest{
		StationID: "S1",
		Metric:    "CPU_USAGE",
		Value:     500.0,
	})

	h.Ingest(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsIngestRejectsMalformedBody(t *testing.T) {
	h := NewMetricsHandler(newTestCoreService(), logger.New("error"))
	c, w := newTestContext(http.MethodPost, "/api/v1/metrics/ingest", nil)

	h.Ingest(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
