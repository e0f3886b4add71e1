package ws

import (
	"encoding/json"
	"sync"
)

// Client represents a single WebSocket connection watching availability.
type Client struct {
	Send   chan []byte
	Hub    *Hub // set so Close() can unregister
	mu     sync.Mutex
	closed bool
}

// trySend queues a frame unless the client is closed or its buffer is full.
// Holding the mutex keeps the send ordered against Close, which closes the
// channel under the same lock.
func (c *Client) trySend(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	if c.Hub != nil {
		c.Hub.unregister(c)
	}
}

// Hub maintains the set of connected storefront clients and pushes tanda
// availability changes to all of them. The channel is read-only for clients;
// there is nothing to receive.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.Hub = h
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// BroadcastDisponibilidad notifies every connected client that a tanda's
// free numbers changed. Slow clients drop the frame rather than block the
// reconciler.
func (h *Hub) BroadcastDisponibilidad(tandaID uint, disponibles []int, disponible bool) {
	if disponibles == nil {
		disponibles = []int{}
	}
	data, _ := json.Marshal(map[string]interface{}{
		"type":        "disponibilidad",
		"tanda_id":    tandaID,
		"disponibles": disponibles,
		"disponible":  disponible,
	})
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.trySend(data)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
