package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/bscore/diagnostic-core/pkg/logger"
)

func TestParseStreamsAndNames(t *testing.T) {
	m := parseStreams("anomalies,predictions,,anomalies ")
	assert.True(t, m["anomalies"])
	assert.True(t, m["predictions"])
	assert.Len(t, streamNames(m), 2)
}

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws/events", hub.ServeWS)
	return httptest.NewServer(router)
}

func TestHubBroadcastsAnomalyToSubscribedClient(t *testing.T) {
	hub := NewHub(logger.New("error"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := newTestServer(t, hub)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/events?streams=anomalies&station_id=S1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the hub loop time to process registration before broadcasting.
	time.Sleep(20 * time.Millisecond)
	hub.BroadcastAnomaly(domain.Anomaly{ID: "anom-1", StationID: "S1", Severity: domain.SeverityHigh})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, "anomaly", msg.Type)
	assert.Equal(t, "S1", msg.StationID)
}

func TestHubDoesNotDeliverUnsubscribedStream(t *testing.T) {
	hub := NewHub(logger.New("error"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := newTestServer(t, hub)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/events?streams=actions"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(20 * time.Millisecond)
	hub.BroadcastAnomaly(domain.Anomaly{ID: "anom-1", StationID: "S1"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err) // read deadline exceeded: nothing was delivered
}
