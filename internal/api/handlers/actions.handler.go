package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bscore/diagnostic-core/internal/core"
	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/bscore/diagnostic-core/pkg/logger"
)

// ActionsHandler exposes the healing orchestrator's submit/approve/cancel
// and history operations of spec.md §6.
type ActionsHandler struct {
	service *core.Service
	logger  logger.Logger
}

func NewActionsHandler(service *core.Service, logger logger.Logger) *ActionsHandler {
	return &ActionsHandler{service: service, logger: logger}
}

type submitActionRequest struct {
	ID          string            `json:"id" binding:"required"`
	StationID   string            `json:"station_id" binding:"required"`
	Kind        string            `json:"kind" binding:"required"`
	Parameters  map[string]string `json:"parameters"`
	Description string            `json:"description"`
	Risk        string            `json:"risk" binding:"required"`
	Source      string            `json:"source" binding:"required"`
	SourceID    string            `json:"source_id"`
	AutoExecute bool              `json:"auto_execute"`
	TimeoutSec  int               `json:"timeout_seconds"`
	Rollback    *struct {
		Kind       string            `json:"kind"`
		Parameters map[string]string `json:"parameters"`
	} `json:"rollback"`
}

// POST /api/v1/actions
func (h *ActionsHandler) Submit(c *gin.Context) {
	var req submitActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"error":   "invalid request format",
			"details": err.Error(),
		})
		return
	}

	action := domain.HealingAction{
		ID:          req.ID,
		StationID:   req.StationID,
		Kind:        domain.ActionKind(req.Kind),
		Parameters:  req.Parameters,
		Description: req.Description,
		Risk:        domain.RiskLevel(req.Risk),
		Source:      domain.ActionSource(req.Source),
		SourceID:    req.SourceID,
		AutoExecute: req.AutoExecute,
		Timeout:     time.Duration(req.TimeoutSec) * time.Second,
		CreatedAt:   time.Now(),
	}
	if req.Rollback != nil {
		action.Rollback = &domain.RollbackSpec{
			Kind:       domain.ActionKind(req.Rollback.Kind),
			Parameters: req.Rollback.Parameters,
		}
	}

	outcome := h.service.SubmitAction(action)
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   outcome,
	})
}

type approveActionRequest struct {
	ApprovedBy string `json:"approved_by" binding:"required"`
}

// POST /api/v1/actions/:actionId/approve
func (h *ActionsHandler) Approve(c *gin.Context) {
	actionID := c.Param("actionId")
	var req approveActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"error":   "invalid request format",
			"details": err.Error(),
		})
		return
	}

	if !h.service.ApproveAction(actionID, req.ApprovedBy) {
		c.JSON(http.StatusNotFound, gin.H{
			"status": "error",
			"error":  "action not found or not pending",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "approved"})
}

type cancelActionRequest struct {
	Reason string `json:"reason"`
}

// POST /api/v1/actions/:actionId/cancel
func (h *ActionsHandler) Cancel(c *gin.Context) {
	actionID := c.Param("actionId")
	var req cancelActionRequest
	_ = c.ShouldBindJSON(&req)

	if !h.service.CancelAction(actionID, req.Reason) {
		c.JSON(http.StatusNotFound, gin.H{
			"status": "error",
			"error":  "action not found or not pending",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// GET /api/v1/actions/history?station_id=S1&limit=50
func (h *ActionsHandler) History(c *gin.Context) {
	stationID := c.Query("station_id")
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	history := h.service.ExecutionHistory(stationID, limit)
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   history,
	})
}
