package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	clientQueue    = 16
)

type alertClient struct {
	send chan []byte
}

// AlertHub fans newly created alerts out to connected WebSocket clients.
// A client whose queue is full is dropped rather than blocking Publish.
type AlertHub struct {
	mu      sync.Mutex
	clients map[*alertClient]struct{}

	upgrader websocket.Upgrader
	metrics  *Metrics
	log      *slog.Logger
}

func NewAlertHub(allowedOrigins []string, metrics *Metrics, logger *slog.Logger) *AlertHub {
	if logger == nil {
		logger = slog.Default()
	}

	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &AlertHub{
		clients: make(map[*alertClient]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins["*"] || origins[origin]
			},
		},
		metrics: metrics,
		log:     logger,
	}
}

func (h *AlertHub) register() *alertClient {
	c := &alertClient{send: make(chan []byte, clientQueue)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.setGauge(n)
	return c
}

func (h *AlertHub) unregister(c *alertClient) {
	h.mu.Lock()
	h.removeLocked(c)
	n := len(h.clients)
	h.mu.Unlock()

	h.setGauge(n)
}

// removeLocked closes the client's queue exactly once. h.mu must be held.
func (h *AlertHub) removeLocked(c *alertClient) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *AlertHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *AlertHub) Publish(alert Alert) {
	payload, err := json.Marshal(gin.H{"type": "alert", "alert": alert})
	if err != nil {
		h.log.Error("failed to encode alert for stream", "error", err, "alert_id", alert.ID)
		return
	}

	h.mu.Lock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.log.Warn("dropping slow alert stream client")
			h.removeLocked(c)
		}
	}
	n := len(h.clients)
	h.mu.Unlock()

	h.setGauge(n)
	if h.metrics != nil {
		h.metrics.alertsPublished.Inc()
	}
}

func (h *AlertHub) setGauge(n int) {
	if h.metrics != nil {
		h.metrics.streamClients.Set(float64(n))
	}
}

// StreamAlerts upgrades the request and pushes every new alert to the client.
func (a *API) StreamAlerts(c *gin.Context) {
	hub := a.alerts

	conn, err := hub.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		a.log.Warn("alert stream upgrade failed", "error", err)
		return
	}

	client := hub.register()
	go hub.writePump(conn, client)

	defer hub.unregister(client)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				a.log.Warn("alert stream closed unexpectedly", "error", err)
			}
			return
		}
	}
}

func (h *AlertHub) writePump(conn *websocket.Conn, client *alertClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
