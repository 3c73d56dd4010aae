package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bscore/diagnostic-core/internal/core"
	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/bscore/diagnostic-core/pkg/logger"
)

// MetricsHandler exposes the metric ingest operation of spec.md §6.
type MetricsHandler struct {
	service *core.Service
	logger  logger.Logger
}

func NewMetricsHandler(service *core.Service, logger logger.Logger) *MetricsHandler {
	return &MetricsHandler{service: service, logger: logger}
}

type ingestMetricRequest struct {
	StationID string    `json:"station_id" binding:"required"`
	Metric    string    `json:"metric" binding:"required"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	Timestamp time.Time `json:"timestamp"`
}

// POST /api/v1/metrics/ingest
func (h *MetricsHandler) Ingest(c *gin.Context) {
	var req ingestMetricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"error":   "invalid request format",
			"details": err.Error(),
		})
		return
	}

	reading := domain.MetricReading{
		StationID: req.StationID,
		Metric:    domain.MetricKind(req.Metric),
		Value:     req.Value,
		Unit:      req.Unit,
		Timestamp: req.Timestamp,
	}

	accepted, anomaly, err := h.service.IngestMetric(reading)
	if err != nil {
		h.logger.Warn("metric rejected", "station_id", req.StationID, "metric", req.Metric, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "rejected",
			"error":  err.Error(),
		})
		return
	}

	resp := gin.H{
		"status":   "accepted",
		"accepted": accepted,
	}
	if anomaly != nil {
		resp["anomaly"] = anomaly
	}
	c.JSON(http.StatusOK, resp)
}
