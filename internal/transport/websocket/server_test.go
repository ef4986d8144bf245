package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.HandleWebSocket(w, r, "cust-1")
	}))
	defer server.Close()

	wsURL := "ws" + server.URL[4:]
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	time.Sleep(100 * time.Millisecond)

	hub.mu.RLock()
	connections, exists := hub.connections["cust-1"]
	hub.mu.RUnlock()

	if !exists {
		t.Fatal("Connection should be registered")
	}
	if len(connections) != 1 {
		t.Fatalf("Expected 1 connection, got %d", len(connections))
	}

	conn.Close()

	time.Sleep(100 * time.Millisecond)

	hub.mu.RLock()
	_, exists = hub.connections["cust-1"]
	hub.mu.RUnlock()

	if exists {
		t.Fatal("Connection should be unregistered after close")
	}
}

func TestHub_BroadcastReachesOnlyTargetCustomer(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.HandleWebSocket(w, r, r.URL.Query().Get("customer_id"))
	}))
	defer server.Close()

	dial := func(customerID string) *websocket.Conn {
		conn, _, err := websocket.DefaultDialer.Dial("ws"+server.URL[4:]+"?customer_id="+customerID, nil)
		if err != nil {
			t.Fatalf("Failed to connect %s: %v", customerID, err)
		}
		return conn
	}

	target := dial("cust-1")
	defer target.Close()
	other := dial("cust-2")
	defer other.Close()

	time.Sleep(100 * time.Millisecond)

	hub.Broadcast("cust-1", &Message{Type: "payment_processed", Data: map[string]interface{}{"ok": true}})

	target.SetReadDeadline(time.Now().Add(1 * time.Second))
	var got Message
	if err := target.ReadJSON(&got); err != nil {
		t.Fatalf("target read: %v", err)
	}
	if got.Type != "payment_processed" {
		t.Fatalf("expected payment_processed, got %s", got.Type)
	}

	other.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if err := other.ReadJSON(&got); err == nil {
		t.Fatal("other customer should not receive the message")
	}
}
