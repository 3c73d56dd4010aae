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

// AlarmsHandler exposes the alarm ingest and correlation operations of
// spec.md §6.
type AlarmsHandler struct {
	service *core.Service
	logger  logger.Logger
	hub     *ws.Hub
}

func NewAlarmsHandler(service *core.Service, logger logger.Logger) *AlarmsHandler {
	return &AlarmsHandler{service: service, logger: logger}
}

// WithHub attaches a websocket hub so newly found clusters are pushed to
// subscribed dashboards as they are correlated, not just returned in the
// response body.
func (h *AlarmsHandler) WithHub(hub *ws.Hub) *AlarmsHandler {
	h.hub = hub
	return h
}

type alarmRequest struct {
	AlarmID   string    `json:"alarm_id" binding:"required"`
	StationID string    `json:"station_id" binding:"required"`
	AlarmType string    `json:"alarm_type" binding:"required"`
	Severity  string    `json:"severity" binding:"required"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Metric    *string   `json:"metric"`
	Value     *float64  `json:"value"`
	Cleared   bool      `json:"cleared"`
}

func (r alarmRequest) toDomain() domain.Alarm {
	alarm := domain.Alarm{
		AlarmID:   r.AlarmID,
		StationID: r.StationID,
		AlarmType: r.AlarmType,
		Severity:  domain.AlarmSeverity(r.Severity),
		Timestamp: r.Timestamp,
		Message:   r.Message,
		Value:     r.Value,
		Cleared:   r.Cleared,
	}
	if alarm.Timestamp.IsZero() {
		alarm.Timestamp = time.Now()
	}
	if r.Metric != nil {
		kind := domain.MetricKind(*r.Metric)
		alarm.Metric = &kind
	}
	return alarm
}

// POST /api/v1/alarms
func (h *AlarmsHandler) Ingest(c *gin.Context) {
	var req alarmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"error":   "invalid request format",
			"details": err.Error(),
		})
		return
	}

	h.service.IngestAlarm(req.toDomain())
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

type correlateRequest struct {
	Alarms []alarmRequest `json:"alarms"`
}

// POST /api/v1/alarms/correlate
// An empty body correlates over every alarm currently buffered across
// stations.
func (h *AlarmsHandler) Correlate(c *gin.Context) {
	var req correlateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"error":   "invalid request format",
				"details": err.Error(),
			})
			return
		}
	}

	var alarms []domain.Alarm
	if len(req.Alarms) > 0 {
		alarms = make([]domain.Alarm, 0, len(req.Alarms))
		for _, a := range req.Alarms {
			alarms = append(alarms, a.toDomain())
		}
	}

	result := h.service.Correlate(alarms)
	if h.hub != nil {
		for _, cluster := range result.Clusters {
			h.hub.BroadcastAlarmCluster(cluster)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   result,
	})
}
