package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"faceoverlay/internal/dto"
	"faceoverlay/internal/logger"

	"github.com/gorilla/websocket"
)

func startHub(t *testing.T) (*HubService, *httptest.Server) {
	t.Helper()

	hub := NewHubService(logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if !hub.Register(conn) {
			conn.Close()
			return
		}
		defer hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))

	t.Cleanup(func() {
		server.Close()
		cancel()
		<-hub.done
	})
	return hub, server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]json.RawMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg map[string]json.RawMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return msg
}

func waitForClients(t *testing.T, hub *HubService, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", hub.GetClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcastsToViewers(t *testing.T) {
	hub, server := startHub(t)
	a := dial(t, server)
	b := dial(t, server)
	waitForClients(t, hub, 2)

	if err := hub.Broadcast(dto.ViewMessage{Type: dto.MessageStatus, Payload: dto.StatusPayload{Text: "Waiting for webcam..."}}); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readMessage(t, conn)
		if string(msg["type"]) != `"status"` {
			t.Errorf("type = %s, want status", msg["type"])
		}
		if !strings.Contains(string(msg["payload"]), "Waiting for webcam...") {
			t.Errorf("payload = %s", msg["payload"])
		}
	}
}

func TestHubSendsLatestStateToNewViewers(t *testing.T) {
	hub, server := startHub(t)

	hub.Broadcast(dto.ViewMessage{Type: dto.MessageStatus, Payload: dto.StatusPayload{Text: "old"}})
	hub.Broadcast(dto.ViewMessage{Type: dto.MessageSummary, Payload: dto.SummaryPayload{}})
	hub.Broadcast(dto.ViewMessage{Type: dto.MessageStatus, Payload: dto.StatusPayload{Ready: true}})
	for len(hub.broadcast) > 0 {
		time.Sleep(time.Millisecond)
	}

	conn := dial(t, server)

	first := readMessage(t, conn)
	if string(first["type"]) != `"status"` || !strings.Contains(string(first["payload"]), `"ready":true`) {
		t.Errorf("first message = %v, want latest status", first)
	}
	second := readMessage(t, conn)
	if string(second["type"]) != `"summary"` {
		t.Errorf("second message type = %s, want summary", second["type"])
	}

	if _, ok := hub.Last(dto.MessageFrame); ok {
		t.Error("no frame was broadcast")
	}
}

func TestHubForgetsDisconnectedViewers(t *testing.T) {
	hub, server := startHub(t)
	conn := dial(t, server)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHubRegisterAfterStop(t *testing.T) {
	hub := NewHubService(logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	cancel()
	<-hub.done

	if hub.Register(nil) {
		t.Error("Register should fail after the hub stopped")
	}
	if err := hub.Broadcast(dto.ViewMessage{Type: dto.MessageStatus}); err != nil {
		t.Errorf("Broadcast after stop: %v", err)
	}
}
