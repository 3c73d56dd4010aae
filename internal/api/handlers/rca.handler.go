package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bscore/diagnostic-core/internal/core"
	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/bscore/diagnostic-core/pkg/logger"
)

// RCAHandler exposes the root cause analysis operation of spec.md §6.
type RCAHandler struct {
	service *core.Service
	logger  logger.Logger
}

func NewRCAHandler(service *core.Service, logger logger.Logger) *RCAHandler {
	return &RCAHandler{service: service, logger: logger}
}

type causalEventRequest struct {
	EventID   string            `json:"event_id" binding:"required"`
	EventType string            `json:"event_type" binding:"required"`
	StationID string            `json:"station_id" binding:"required"`
	Timestamp time.Time         `json:"timestamp"`
	Severity  string            `json:"severity"`
	Metric    *string           `json:"metric"`
	Value     *float64          `json:"value"`
	Metadata  map[string]string `json:"metadata"`
}

type analyzeRCARequest struct {
	Events []causalEventRequest `json:"events" binding:"required"`
}

// POST /api/v1/rca/analyze
func (h *RCAHandler) Analyze(c *gin.Context) {
	var req analyzeRCARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"error":   "invalid request format",
			"details": err.Error(),
		})
		return
	}

	events := make([]domain.CausalEvent, 0, len(req.Events))
	for _, e := range req.Events {
		event := domain.CausalEvent{
			EventID:   e.EventID,
			EventType: e.EventType,
			StationID: e.StationID,
			Timestamp: e.Timestamp,
			Severity:  domain.AlarmSeverity(e.Severity),
			Value:     e.Value,
			Metadata:  e.Metadata,
		}
		if e.Metric != nil {
			kind := domain.MetricKind(*e.Metric)
			event.Metric = &kind
		}
		events = append(events, event)
	}

	result, err := h.service.AnalyzeRCA(c.Request.Context(), events)
	if err != nil {
		h.logger.Error("rca analysis failed", "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   result,
	})
}
