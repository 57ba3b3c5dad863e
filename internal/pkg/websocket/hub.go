// Package websocket pushes occurrence changes to staff clients watching a
// session over a websocket connection.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ErrHubClosed is returned when a client connects after the hub stopped
var ErrHubClosed = errors.New("websocket hub is closed")

const broadcastBuffer = 64

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Clients authenticate with a bearer token, not cookies
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub maintains the set of active clients and broadcasts events to them
type Hub struct {
	// Registered clients organized by session ID
	clients map[int64]map[*Client]bool

	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	// Guards clients for readers outside Run
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		broadcast:  make(chan Event, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run handles registrations and broadcasts until ctx is done, then closes
// every client connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// Publish queues event for every client watching event.SessionID. It never
// blocks; when the queue is full the event is dropped.
func (h *Hub) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case h.broadcast <- event:
	case <-h.done:
	default:
		h.logger.Warn().Str("type", event.Type).Int64("sessionID", event.SessionID).Msg("Live event queue full, dropping event")
	}
}

// Serve upgrades the request to a websocket and subscribes it to sessionID.
// On upgrade failure the upgrader has already written an HTTP error.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, sessionID, staffID int64) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 32),
		staffID:   staffID,
		sessionID: sessionID,
		logger:    h.logger,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return ErrHubClosed
	}

	go client.writePump()
	go client.readPump()
	return nil
}

// SubscriberCount returns the number of clients watching a session
func (h *Hub) SubscriberCount(sessionID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.sessionID]; !ok {
		h.clients[client.sessionID] = make(map[*Client]bool)
	}
	h.clients[client.sessionID][client] = true

	h.logger.Info().
		Int64("sessionID", client.sessionID).
		Int64("staffID", client.staffID).
		Str("addr", client.conn.RemoteAddr().String()).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.sessionID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.sessionID)
	}

	h.logger.Info().
		Int64("sessionID", client.sessionID).
		Int64("staffID", client.staffID).
		Msg("Client unregistered")
}

func (h *Hub) broadcastEvent(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Int64("sessionID", event.SessionID).Msg("Failed to marshal live event")
		return
	}

	var slow []*Client
	h.mu.RLock()
	for client := range h.clients[event.SessionID] {
		select {
		case client.send <- data:
		default:
			slow = append(slow, client)
		}
	}
	count := len(h.clients[event.SessionID])
	h.mu.RUnlock()

	// A full send buffer means the client stopped reading
	for _, client := range slow {
		h.unregisterClient(client)
	}

	h.logger.Debug().
		Str("type", event.Type).
		Int64("sessionID", event.SessionID).
		Int("clientCount", count).
		Msg("Event broadcasted to session")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sessionID, clients := range h.clients {
		for client := range clients {
			close(client.send)
		}
		delete(h.clients, sessionID)
	}
}
