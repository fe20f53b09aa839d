package handlers

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/leandroblox/open-kahoot/internal/models"
)

// Hub tracks live WebSocket clients by connection id and delivers
// outbound messages to them. It implements quiz.Broadcaster.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *slog.Logger
}

// NewHub creates an empty hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Send queues msg for the connection. It never blocks: a client whose
// buffer is full loses the message.
func (h *Hub) Send(connectionID string, msg models.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal message", "error", err, "msg_type", msg.Type)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.clients[connectionID]
	if !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		h.logger.Warn("Client send buffer full, dropping message", "connection_id", connectionID, "msg_type", msg.Type)
	}
}

// Len returns the number of connected clients
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
	h.logger.Info("Client registered", "connection_id", c.id, "clients", len(h.clients))
}

// unregister removes the client and closes its send channel. Senders only
// reach the channel through the map under mu, so closing here is safe.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	close(c.send)
	h.logger.Info("Client unregistered", "connection_id", c.id, "clients", len(h.clients))
}
