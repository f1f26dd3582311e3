package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
)

func newTestHub() *Hub {
	logger, _ := test.NewNullLogger()
	return NewHub(logger)
}

func newTestClient(hub *Hub, sessionID string, buffer int) *Client {
	return &Client{
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, buffer),
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub(nil)

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}
	if hub.sessions == nil {
		t.Error("Hub sessions map is nil")
	}
	if hub.register == nil || hub.unregister == nil {
		t.Error("Hub channels are nil")
	}
	if hub.logger == nil {
		t.Error("Hub logger should default to the standard logger")
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := newTestHub()
	client := newTestClient(hub, "test-session", sendBuffer)

	hub.registerClient(client)

	if !hub.sessions["test-session"][client] {
		t.Error("Client was not registered in session")
	}
	if got := hub.ClientCount("TEST-SESSION"); got != 1 {
		t.Errorf("Expected 1 client in session, got %d", got)
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := newTestHub()
	client := newTestClient(hub, "test-session", sendBuffer)

	hub.registerClient(client)
	hub.unregisterClient(client)

	if _, exists := hub.sessions["test-session"]; exists {
		t.Error("Session should have been cleaned up after last client unregistered")
	}
	if _, ok := <-client.send; ok {
		t.Error("send channel should be closed")
	}

	// A second unregister must not panic on the closed channel.
	hub.unregisterClient(client)
}

func TestHubMultipleClientsInSession(t *testing.T) {
	hub := newTestHub()
	sessionID := "multi-client-session"

	client1 := newTestClient(hub, sessionID, sendBuffer)
	client2 := newTestClient(hub, sessionID, sendBuffer)
	hub.registerClient(client1)
	hub.registerClient(client2)

	if got := hub.ClientCount(sessionID); got != 2 {
		t.Errorf("Expected 2 clients in session, got %d", got)
	}

	hub.unregisterClient(client1)

	if got := hub.ClientCount(sessionID); got != 1 {
		t.Errorf("Expected 1 client remaining in session, got %d", got)
	}
	if !hub.sessions[sessionID][client2] {
		t.Error("client2 should still be registered")
	}
}

func TestHubBroadcastToSession(t *testing.T) {
	hub := newTestHub()
	sessionID := "broadcast-test"

	client := newTestClient(hub, sessionID, sendBuffer)
	other := newTestClient(hub, "other-session", sendBuffer)
	hub.registerClient(client)
	hub.registerClient(other)

	gameState := &engine.GameState{
		Level:     2,
		PlayerPos: engine.Position{X: 5, Y: 3},
		Status:    engine.StatusInProgress,
		Moves:     4,
	}

	// Session IDs are matched case-insensitively.
	hub.BroadcastToSession("Broadcast-Test", gameState)

	select {
	case data := <-client.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if message.Event != EventState {
			t.Errorf("Expected event %q, got %q", EventState, message.Event)
		}
		if message.GameState.PlayerPos.X != 5 || message.GameState.PlayerPos.Y != 3 {
			t.Error("GameState not correctly transmitted")
		}
		if message.GameState.Status != engine.StatusInProgress || message.GameState.Moves != 4 {
			t.Errorf("unexpected state: %+v", message.GameState)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("No message received within timeout")
	}

	select {
	case <-other.send:
		t.Error("other session should not receive the broadcast")
	default:
	}
}

func TestHubBroadcastEvent(t *testing.T) {
	hub := newTestHub()
	client := newTestClient(hub, "event-test", sendBuffer)
	hub.registerClient(client)

	hub.BroadcastEvent("event-test", EventSolved, "level 1")

	var message Message
	if err := json.Unmarshal(<-client.send, &message); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if message.Event != EventSolved {
		t.Errorf("Expected event %q, got %q", EventSolved, message.Event)
	}
	if message.Data != "level 1" {
		t.Errorf("Expected data 'level 1', got %v", message.Data)
	}
	if message.GameState != nil {
		t.Error("event messages carry no game state")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := newTestHub()
	slow := newTestClient(hub, "slow", 1)
	hub.registerClient(slow)

	hub.BroadcastEvent("slow", "first", nil)
	hub.BroadcastEvent("slow", "second", nil)

	if got := hub.ClientCount("slow"); got != 0 {
		t.Errorf("slow client should have been dropped, %d remain", got)
	}
}

func TestHubRunStopsOnCancel(t *testing.T) {
	hub := newTestHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := newTestClient(hub, "s", sendBuffer)
	hub.register <- client

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if got := hub.ClientCount("s"); got != 0 {
		t.Errorf("clients should be closed on shutdown, %d remain", got)
	}
}

func newWSServer(t *testing.T, hub *Hub, initial *engine.GameState) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session")
		if sessionID == "" {
			sessionID = "default"
		}
		hub.ServeWS(w, r, sessionID, initial)
	}))
	t.Cleanup(server.Close)
	return server
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

func TestWebSocketUpgrade(t *testing.T) {
	hub := newTestHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := newWSServer(t, hub, nil)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=ws-test"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}

	waitFor(t, func() bool { return hub.ClientCount("ws-test") == 1 })

	conn.Close()

	waitFor(t, func() bool { return hub.ClientCount("ws-test") == 0 })
}

func TestWebSocketMessageReceive(t *testing.T) {
	hub := newTestHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	initial := &engine.GameState{Level: 1, Status: engine.StatusLoaded}
	server := newWSServer(t, hub, initial)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=msg-test"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	read := func() Message {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Failed to read WebSocket message: %v", err)
		}
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		return message
	}

	first := read()
	if first.GameState == nil || first.GameState.Status != engine.StatusLoaded {
		t.Fatalf("expected initial state first, got %+v", first)
	}

	waitFor(t, func() bool { return hub.ClientCount("msg-test") == 1 })
	hub.BroadcastToSession("msg-test", &engine.GameState{
		Level:     1,
		PlayerPos: engine.Position{X: 10, Y: 15},
		Status:    engine.StatusSolved,
		Solved:    true,
	})

	message := read()
	if message.SessionID != "msg-test" {
		t.Errorf("Expected sessionID 'msg-test', got %s", message.SessionID)
	}
	if message.GameState.PlayerPos.X != 10 || message.GameState.PlayerPos.Y != 15 {
		t.Error("GameState position not correctly received")
	}
	if !message.GameState.Solved {
		t.Error("GameState solved flag not received")
	}
}
