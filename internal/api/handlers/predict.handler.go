package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bscore/diagnostic-core/internal/api/ws"
	"github.com/bscore/diagnostic-core/internal/core"
	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/bscore/diagnostic-core/pkg/logger"
)

// PredictHandler exposes the predictive health operations of spec.md §6.
type PredictHandler struct {
	service *core.Service
	logger  logger.Logger
	hub     *ws.Hub
}

func NewPredictHandler(service *core.Service, logger logger.Logger) *PredictHandler {
	return &PredictHandler{service: service, logger: logger}
}

// WithHub attaches a websocket hub so fresh predictions reach subscribed
// dashboards as they are computed.
func (h *PredictHandler) WithHub(hub *ws.Hub) *PredictHandler {
	h.hub = hub
	return h
}

// GET /api/v1/predict/:stationId/:component?window=1h
func (h *PredictHandler) PredictComponent(c *gin.Context) {
	stationID := c.Param("stationId")
	component := domain.Component(c.Param("component"))
	window := parseWindow(c.DefaultQuery("window", "0"))

	prediction, err := h.service.PredictComponent(c.Request.Context(), stationID, component, window)
	if err != nil {
		h.logger.Error("predict component failed", "station_id", stationID, "component", component, "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}

	if h.hub != nil && prediction != nil {
		h.hub.BroadcastPrediction(*prediction)
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   prediction,
	})
}

// GET /api/v1/stations/:stationId/health?window=1h
func (h *PredictHandler) StationHealthReport(c *gin.Context) {
	stationID := c.Param("stationId")
	window := parseWindow(c.DefaultQuery("window", "0"))

	report := h.service.StationHealthReport(c.Request.Context(), stationID, window)
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   report,
	})
}

func parseWindow(raw string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0
	}
	return d
}
