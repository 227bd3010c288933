// Package hub tracks live WebSocket connections per session and fans
// outbound messages out to them. It knows nothing about game rules;
// the session manager publishes through the Broadcast method.
package hub

import (
	"sync"

	"github.com/abrezinsky/trackbet/internal/logger"
	"github.com/abrezinsky/trackbet/internal/models"
	"github.com/gorilla/websocket"
)

// Hub maintains the set of active clients bucketed by session
type Hub struct {
	log      logger.Logger
	mu       sync.RWMutex
	sessions map[string]map[*Client]bool
}

// New creates a new Hub instance
func New(log logger.Logger) *Hub {
	return &Hub{
		log:      log,
		sessions: make(map[string]map[*Client]bool),
	}
}

// Register adds a connection under its session's bucket and starts the
// client's write pump
func (h *Hub) Register(sessionID, playerName string, conn *websocket.Conn) *Client {
	client := &Client{
		hub:        h,
		conn:       conn,
		sessionID:  sessionID,
		playerName: playerName,
		send:       make(chan *models.Outbound, sendBuffer),
	}

	h.mu.Lock()
	bucket, ok := h.sessions[sessionID]
	if !ok {
		bucket = make(map[*Client]bool)
		h.sessions[sessionID] = bucket
	}
	bucket[client] = true
	total := len(bucket)
	h.mu.Unlock()

	h.log.Debug("Client connected", "session_id", sessionID, "player", playerName, "session_clients", total)

	go client.writePump()
	return client
}

// Unregister removes a connection. Empty buckets are dropped; session
// state itself is untouched. Safe to call more than once per client.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	bucket, ok := h.sessions[client.sessionID]
	if ok {
		if _, registered := bucket[client]; registered {
			delete(bucket, client)
			close(client.send)
		}
		if len(bucket) == 0 {
			delete(h.sessions, client.sessionID)
		}
	}
	h.mu.Unlock()

	h.log.Debug("Client disconnected", "session_id", client.sessionID, "player", client.playerName)
}

// Send delivers a message to a single client. Best-effort: a client
// that cannot keep up is unregistered, never blocked on.
func (h *Hub) Send(client *Client, msg *models.Outbound) {
	h.mu.RLock()
	registered := h.sessions[client.sessionID][client]
	var stale bool
	if registered {
		select {
		case client.send <- msg:
		default:
			stale = true
		}
	}
	h.mu.RUnlock()

	if stale {
		h.Unregister(client)
	}
}

// Broadcast delivers a message to every connection in a session. It
// implements session.Broadcaster.
func (h *Hub) Broadcast(sessionID string, msg *models.Outbound) {
	h.broadcast(sessionID, msg, nil)
}

// BroadcastExcept delivers to every connection in a session except one
func (h *Hub) BroadcastExcept(sessionID string, msg *models.Outbound, exclude *Client) {
	h.broadcast(sessionID, msg, exclude)
}

func (h *Hub) broadcast(sessionID string, msg *models.Outbound, exclude *Client) {
	h.mu.RLock()
	var stale []*Client
	for client := range h.sessions[sessionID] {
		if client == exclude {
			continue
		}
		select {
		case client.send <- msg:
		default:
			// Full send buffer means a dead or stalled socket; reap it
			// without blocking the rest of the session.
			stale = append(stale, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range stale {
		h.Unregister(client)
	}
}

// SessionClients reports how many connections a session currently has
func (h *Hub) SessionClients(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}
