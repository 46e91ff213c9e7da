package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"faceoverlay/internal/dto"
	"faceoverlay/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait       = 5 * time.Second
	broadcastBuffer = 64
)

type outgoing struct {
	kind string
	data []byte
}

// HubService fans viewer messages out to every connected websocket. Only the
// Run goroutine writes to connections.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan outgoing
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}

	// Ostatnia wiadomość każdego typu, wysyłana nowym klientom
	last  map[string][]byte
	order []string

	mutex  sync.RWMutex
	logger *logger.Logger
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan outgoing, broadcastBuffer),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		last:       make(map[string][]byte),
		logger:     logger,
	}
}

// Run dispatches registrations and broadcasts until ctx is cancelled, then
// closes every client.
func (h *HubService) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			h.logger.Info("Viewer hub stopped")
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Client connected. Total: %d", count)
			h.sendSticky(client)

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.mutex.RLock()
			clients := make([]*websocket.Conn, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mutex.RUnlock()

			for _, client := range clients {
				if err := write(client, msg.data); err != nil {
					h.logger.Error("Error sending %s message: %v", msg.kind, err)
					h.remove(client)
				}
			}
		}
	}
}

func (h *HubService) sendSticky(client *websocket.Conn) {
	h.mutex.RLock()
	pending := make([][]byte, 0, len(h.order))
	for _, kind := range h.order {
		pending = append(pending, h.last[kind])
	}
	h.mutex.RUnlock()

	for _, data := range pending {
		if err := write(client, data); err != nil {
			h.logger.Error("Error sending initial state: %v", err)
			h.remove(client)
			return
		}
	}
}

func (h *HubService) remove(client *websocket.Conn) {
	h.mutex.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		client.Close()
	}
	count := len(h.clients)
	h.mutex.Unlock()

	if ok {
		h.logger.Info("Client disconnected. Total: %d", count)
	}
}

func write(client *websocket.Conn, data []byte) error {
	client.SetWriteDeadline(time.Now().Add(writeWait))
	return client.WriteMessage(websocket.TextMessage, data)
}

// Register adds a viewer. It returns false once the hub has stopped.
func (h *HubService) Register(client *websocket.Conn) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *HubService) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues message for every viewer and remembers it as the latest
// message of its type. It never blocks: when viewers fall behind the
// message is dropped for them, but still delivered to later joiners.
func (h *HubService) Broadcast(message dto.ViewMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to encode %s message: %w", message.Type, err)
	}

	h.mutex.Lock()
	if _, ok := h.last[message.Type]; !ok {
		h.order = append(h.order, message.Type)
	}
	h.last[message.Type] = data
	h.mutex.Unlock()

	select {
	case h.broadcast <- outgoing{kind: message.Type, data: data}:
	case <-h.done:
	default:
		h.logger.Warning("Viewer queue full - dropping %s message", message.Type)
	}
	return nil
}

// Last returns the most recent encoded message of the given type.
func (h *HubService) Last(kind string) ([]byte, bool) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	data, ok := h.last[kind]
	return data, ok
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
