package websocket

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/helpdeskhq/support-router/types"
)

func TestLogBufferIsCapped(t *testing.T) {
	s := NewLogStream(nil)

	for i := 0; i < 150; i++ {
		s.BroadcastAgentLog(types.NewAgentLog(types.LogTypeRouting, "engine", fmt.Sprintf("turn %d", i)))
	}

	stats := s.Stats()
	if got := stats["buffer_size"].(int); got != 100 {
		t.Fatalf("Expected the replay buffer capped at 100, got %d", got)
	}
}

func TestClientReceivesReplayAndLiveLogs(t *testing.T) {
	s := NewLogStream(nil)
	s.Start()
	defer s.Stop()

	s.BroadcastAgentLog(types.NewAgentLog(types.LogTypeRouting, "engine", "replayed entry"))

	srv := httptest.NewServer(http.HandlerFunc(s.HandleWS))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Expected the dial to succeed, got %v", err)
	}
	defer conn.Close()

	readMessage := func() types.WebSocketMessage {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Expected a message, got %v", err)
		}
		var msg types.WebSocketMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("Expected JSON, got %v", err)
		}
		return msg
	}

	if msg := readMessage(); msg.Type != types.WSTypeConnection {
		t.Fatalf("Expected a connection confirmation first, got %s", msg.Type)
	}
	if msg := readMessage(); msg.Type != types.WSTypeLog {
		t.Fatalf("Expected the replayed log entry, got %s", msg.Type)
	}

	// A log broadcast after connect arrives live.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.hub.ClientCount() > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	s.BroadcastAgentLog(types.NewAgentLog(types.LogTypeRouting, "engine", "live entry"))

	msg := readMessage()
	if msg.Type != types.WSTypeLog {
		t.Fatalf("Expected a live log entry, got %s", msg.Type)
	}
	payload, _ := json.Marshal(msg.Payload)
	var l types.AgentLog
	if err := json.Unmarshal(payload, &l); err != nil {
		t.Fatalf("Expected a log payload, got %v", err)
	}
	if l.Content != "live entry" {
		t.Fatalf("Expected the live entry content, got %q", l.Content)
	}
}

func TestStatsReportsClients(t *testing.T) {
	s := NewLogStream(nil)
	stats := s.Stats()
	if stats["clients"].(int) != 0 {
		t.Fatal("Expected no clients on a fresh stream")
	}
	if stats["max_buffer"].(int) != 100 {
		t.Fatalf("Expected a max buffer of 100, got %v", stats["max_buffer"])
	}
}
