package gateway

import (
	"sync"

	"go.uber.org/zap"

	"taash29/apps/server/internal/codec"
)

// Hub tracks live connections by identity and delivers room envelopes
// to them.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Connection
	log   *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{conns: make(map[string]*Connection), log: log.Named("hub")}
}

// Notify encodes env in the format the identity's client last used and
// queues it. Full buffers drop the message.
func (h *Hub) Notify(identity string, env codec.Envelope) {
	h.mu.RLock()
	c := h.conns[identity]
	h.mu.RUnlock()
	if c == nil {
		return
	}
	c.send(env)
}

// register makes c the live connection for its identity and returns the
// connection it replaced, if any.
func (h *Hub) register(c *Connection) *Connection {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := h.conns[c.Identity]
	h.conns[c.Identity] = c
	return prev
}

// unregister removes c if it is still the live connection.
func (h *Hub) unregister(c *Connection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[c.Identity] != c {
		return false
	}
	delete(h.conns, c.Identity)
	return true
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
