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

	"github.com/wricardo/mall-parking/wayfinder/logger"
	"github.com/wricardo/mall-parking/wayfinder/wayfinding/service"
)

func newTestHub() *Hub {
	hub := NewHub()
	hub.log = logger.Nop()
	return hub
}

func newTestClient(hub *Hub, sessionID string) *Client {
	return &Client{
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, 256),
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := newTestHub()
	client1 := newTestClient(hub, "ab12")
	client2 := newTestClient(hub, "ab12")

	hub.registerClient(client1)
	hub.registerClient(client2)
	if len(hub.sessions["ab12"]) != 2 {
		t.Errorf("Expected 2 clients in session, got %d", len(hub.sessions["ab12"]))
	}

	hub.unregisterClient(client1)
	if !hub.sessions["ab12"][client2] || len(hub.sessions["ab12"]) != 1 {
		t.Error("client2 should still be registered")
	}
	if _, ok := <-client1.send; ok {
		t.Error("Expected send channel of unregistered client to be closed")
	}

	hub.unregisterClient(client2)
	if _, exists := hub.sessions["ab12"]; exists {
		t.Error("Session should have been cleaned up after last client unregistered")
	}

	// Unregistering twice is harmless
	hub.unregisterClient(client2)
}

func TestHubBroadcastMessage(t *testing.T) {
	hub := newTestHub()
	client := newTestClient(hub, "ab12")
	other := newTestClient(hub, "cd34")
	hub.registerClient(client)
	hub.registerClient(other)

	nav := &service.NavigationResult{
		SessionID: "ab12",
		LayoutID:  "b3",
		Vehicle:   service.VehicleInfo{Column: "F8"},
		ToVehicle: &service.LegResult{Reachable: true, Moves: 10},
		ToExit:    &service.LegResult{Reachable: false},
	}
	hub.BroadcastRoute(nav)
	hub.broadcastMessage(<-hub.broadcast)

	select {
	case data := <-client.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if message.Event != EventRouteUpdate || message.SessionID != "ab12" {
			t.Errorf("Unexpected message header: %+v", message)
		}
		if message.Navigation.Vehicle.Column != "F8" || message.Navigation.ToVehicle.Moves != 10 || message.Navigation.ToExit.Reachable {
			t.Errorf("Navigation not transmitted: %+v", message.Navigation)
		}
	default:
		t.Error("No message queued for session client")
	}

	select {
	case <-other.send:
		t.Error("Client of another session received the update")
	default:
	}
}

func TestHubBroadcastDoesNotBlock(t *testing.T) {
	hub := newTestHub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastBuffer*2; i++ {
			hub.BroadcastEvent("ab12", "ping", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked without a running hub")
	}
	if len(hub.broadcast) != broadcastBuffer {
		t.Errorf("Expected a full queue of %d, got %d", broadcastBuffer, len(hub.broadcast))
	}
}

func TestHubSlowClientDropped(t *testing.T) {
	hub := newTestHub()
	slow := &Client{hub: hub, sessionID: "ab12", send: make(chan []byte)}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{SessionID: "ab12", Event: "ping"})

	if _, exists := hub.sessions["ab12"]; exists {
		t.Error("Client with a full buffer should be unregistered")
	}
}

func startTestServer(t *testing.T, hub *Hub) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("session"))
	}))
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	return conn
}

func waitForCount(t *testing.T, hub *Hub, sessionID string, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount(sessionID) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Expected %d clients in %s, got %d", want, sessionID, hub.ClientCount(sessionID))
}

func TestWebSocketLifecycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := newTestHub()
	go hub.Run(ctx)
	server := startTestServer(t, hub)

	conn := dial(t, server, "ws01")
	waitForCount(t, hub, "ws01", 1)

	conn.Close()
	waitForCount(t, hub, "ws01", 0)
}

func TestWebSocketReceivesRouteUpdate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := newTestHub()
	go hub.Run(ctx)
	server := startTestServer(t, hub)

	conn := dial(t, server, "ws02")
	defer conn.Close()
	waitForCount(t, hub, "ws02", 1)

	hub.BroadcastRoute(&service.NavigationResult{
		SessionID: "ws02",
		Locale:    "vi",
		ToVehicle: &service.LegResult{Reachable: true, Text: "Rẽ trái."},
	})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}

	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if message.Navigation == nil || message.Navigation.ToVehicle.Text != "Rẽ trái." {
		t.Errorf("Unexpected message: %s", data)
	}
}

func TestHubShutdownClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := newTestHub()
	go hub.Run(ctx)
	server := startTestServer(t, hub)

	conn := dial(t, server, "ws03")
	defer conn.Close()
	waitForCount(t, hub, "ws03", 1)

	cancel()

	conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("Expected the connection to be closed on shutdown")
	}
	if hub.ClientCount("ws03") != 0 {
		t.Error("Expected zero clients after shutdown")
	}
}
