package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertHub_PublishDropsSlowClients(t *testing.T) {
	metrics := NewMetrics()
	hub := NewAlertHub(nil, metrics, quietLogger())

	fast := hub.register()
	slow := hub.register()
	require.Equal(t, 2, hub.ClientCount())
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.streamClients))

	for i := 0; i < clientQueue; i++ {
		hub.Publish(Alert{ID: uint(i + 1), Title: "fill"})
		<-fast.send
	}
	hub.Publish(Alert{ID: 99, Title: "overflow"})

	assert.Equal(t, 1, hub.ClientCount())
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.streamClients))
	assert.Equal(t, float64(clientQueue+1), testutil.ToFloat64(metrics.alertsPublished))

	msg := <-fast.send
	assert.Contains(t, string(msg), `"overflow"`)

	drained := 0
	for range slow.send {
		drained++
	}
	assert.Equal(t, clientQueue, drained, "slow client queue is closed after its buffered messages")

	hub.unregister(fast)
	hub.unregister(fast)
	assert.Zero(t, hub.ClientCount())
}

func TestAlertHub_CheckOrigin(t *testing.T) {
	hub := NewAlertHub([]string{"http://localhost:3000"}, nil, quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/alerts/stream", nil)
	assert.True(t, hub.upgrader.CheckOrigin(req))

	req.Header.Set("Origin", "http://localhost:3000")
	assert.True(t, hub.upgrader.CheckOrigin(req))

	req.Header.Set("Origin", "http://evil.example.com")
	assert.False(t, hub.upgrader.CheckOrigin(req))

	wildcard := NewAlertHub([]string{"*"}, nil, quietLogger())
	assert.True(t, wildcard.upgrader.CheckOrigin(req))
}

func TestStreamAlerts_ReceivesCreatedAlert(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser(t, "Coordinator", "coord@example.com", RoleFieldCoordinator, "")

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/alerts/stream"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	w := s.do(t, http.MethodPost, "/api/alerts", token, map[string]string{"title": "Flood warning", "message": "Move to high ground"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var event struct {
		Type  string `json:"type"`
		Alert Alert  `json:"alert"`
	}
	require.NoError(t, json.Unmarshal(raw, &event))
	assert.Equal(t, "alert", event.Type)
	assert.Equal(t, "Flood warning", event.Alert.Title)
	assert.Equal(t, AlertStatusSent, event.Alert.Status)
	assert.Equal(t, AlertTypeBroadcast, event.Alert.Type)
	assert.Equal(t, "Coordinator", event.Alert.Sender)

	conn.Close()
	require.Eventually(t, func() bool { return s.hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestAlerts(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser(t, "Admin", "admin@example.com", RoleAdmin, "")

	w := s.do(t, http.MethodPost, "/api/alerts", token, map[string]string{"title": "Road closed", "type": AlertTypeSMS, "recipient": "all", "sender": "Ops"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/api/alerts", token, map[string]string{"title": "x", "status": "Delivered"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPost, "/api/alerts", token, map[string]string{"title": "x", "type": "Pigeon"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPost, "/api/alerts", token, map[string]string{"message": "no title"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPost, "/api/alerts", token, map[string]string{"title": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	alerts := decode[[]Alert](t, s.do(t, http.MethodGet, "/api/alerts", token, nil))
	require.Len(t, alerts, 1)
	assert.Equal(t, "Ops", alerts[0].Sender)
	assert.Equal(t, AlertTypeSMS, alerts[0].Type)
	assert.Equal(t, AlertStatusSent, alerts[0].Status)
}
