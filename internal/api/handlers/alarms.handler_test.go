package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bscore/diagnostic-core/pkg/logger"
)

func TestAlarmsIngestAccepted(t *testing.T) {
	h := NewAlarmsHandler(newTestCoreService(), logger.New("error"))
	c, w := newTestContext(http.MethodPost, "/api/v1/alarms", alarmRequest{
		AlarmID:   "A1",
		StationID: "S1",
		AlarmType: "HIGH_TEMP",
		Severity:  "MAJOR",
	})

	h.Ingest(c)

	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestAlarmsCorrelateOverBufferedAlarms(t *testing.T) {
	svc := newTestCoreService()
	h := NewAlarmsHandler(svc, logger.New("error"))

	ingest, w1 := newTestContext(http.MethodPost, "/api/v1/alarms", alarmRequest{
		AlarmID:   "A1",
		StationID: "S1",
		AlarmType: "HIGH_TEMP",
		Severity:  "MAJOR",
	})
	h.Ingest(ingest)
	require.Equal(t, http.StatusAccepted, w1.Code)

	c, w := newTestContext(http.MethodPost, "/api/v1/alarms/correlate", nil)
	h.Correlate(c)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp["status"])
}
