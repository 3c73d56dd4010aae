package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bscore/diagnostic-core/pkg/logger"
)

func TestActionsSubmitLowRiskQueuesForAutoExecution(t *testing.T) {
	h := NewActionsHandler(newTestCoreService(), logger.New("error"))
	c, w := newTestContext(http.MethodPost, "/api/v1/actions", submitActionRequest{
		ID:        "act-1",
		StationID: "S1",
		Kind:      "SERVICE_RESTART",
		Risk:      "LOW",
		Source:    "predictive",
	})

	h.Submit(c)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "queued_for_execution", data["Status"])
}

func TestActionsApproveUnknownReturnsNotFound(t *testing.T) {
	h := NewActionsHandler(newTestCoreService(), logger.New("error"))
	c, w := newTestContext(http.MethodPost, "/api/v1/actions/does-not-exist/approve", approveActionRequest{ApprovedBy: "op1"})
	c.Params = gin.Params{{Key: "actionId", Value: "does-not-exist"}}

	h.Approve(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestActionsHistoryReturnsEmptyBeforeAnyExecution(t *testing.T) {
	h := NewActionsHandler(newTestCoreService(), logger.New("error"))
	c, w := newTestContext(http.MethodGet, "/api/v1/actions/history", nil)

	h.History(c)

	assert.Equal(t, http.StatusOK, w.Code)
}
