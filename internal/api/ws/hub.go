// Package ws fans diagnostic events (anomalies, alarm clusters, healing
// action outcomes) out to subscribed dashboard clients over WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/bscore/diagnostic-core/pkg/logger"
)

type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	logger     logger.Logger
	mu         sync.RWMutex
}

type client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	stationID string
	streams   map[string]bool // anomalies, alarms, actions, predictions
}

// Message is the envelope written to every subscribed client.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
	StationID string      `json:"station_id,omitempty"`
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte),
		logger:     log,
	}
}

// Run drives the hub's client registry and broadcast fan-out until ctx is
// cancelled. Run it in its own goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.logger.Info("websocket client connected", "station_id", c.stationID, "streams", streamNames(c.streams))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.RUnlock()

		case <-ctx.Done():
			return
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request to a WebSocket and registers a client.
// Query params: station_id (filters by station; empty subscribes to all
// stations), streams (comma-separated, default all).
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	streams := parseStreams(c.Query("streams"))
	if len(streams) == 0 {
		streams = map[string]bool{"anomalies": true, "alarms": true, "actions": true, "predictions": true}
	}

	cl := &client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 256),
		stationID: c.Query("station_id"),
		streams:   streams,
	}

	h.register <- cl

	go cl.writePump()
	go cl.readPump()
}

// BroadcastAnomaly fans an anomaly detection out to subscribed clients.
func (h *Hub) BroadcastAnomaly(anomaly domain.Anomaly) {
	h.publish("anomaly", "anomalies", anomaly.StationID, anomaly)
}

// BroadcastAlarmCluster fans a correlation cluster out to subscribed
// clients.
func (h *Hub) BroadcastAlarmCluster(cluster domain.AlarmCluster) {
	stationID := ""
	if ids := cluster.StationIDs(); len(ids) == 1 {
		stationID = ids[0]
	}
	h.publish("alarm_cluster", "alarms", stationID, cluster)
}

// BroadcastExecutionResult fans a healing action's terminal outcome out to
// subscribed clients.
func (h *Hub) BroadcastExecutionResult(action domain.HealingAction, result domain.ExecutionResult) {
	h.publish("action_result", "actions", action.StationID, gin.H{
		"action": action,
		"result": result,
	})
}

// BroadcastPrediction fans a component health prediction out to
// subscribed clients.
func (h *Hub) BroadcastPrediction(prediction domain.ComponentPrediction) {
	h.publish("prediction", "predictions", prediction.StationID, prediction)
}

func (h *Hub) publish(msgType, stream, stationID string, data interface{}) {
	message := Message{Type: msgType, Data: data, Timestamp: time.Now(), StationID: stationID}
	body, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal websocket message", "type", msgType, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.streams[stream] {
			continue
		}
		if c.stationID != "" && stationID != "" && c.stationID != stationID {
			continue
		}
		select {
		case c.send <- body:
		default:
			delete(h.clients, c)
			close(c.send)
		}
	}
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
)

func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func streamNames(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		if v {
			out = append(out, k)
		}
	}
	return out
}

func parseStreams(raw string) map[string]bool {
	if strings.TrimSpace(raw) == "" {
		return map[string]bool{}
	}
	res := map[string]bool{}
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			res[s] = true
		}
	}
	return res
}
