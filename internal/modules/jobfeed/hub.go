// Package jobfeed pushes job lifecycle events to connected technicians.
package jobfeed

import (
	"encoding/json"
	"log/slog"
	"sync"

	"doorstep/internal/modules/booking"

	"github.com/gorilla/websocket"
)

const sendBuffer = 32

type client struct {
	technicianID int64
	conn         *websocket.Conn
	send         chan []byte
	closeOnce    sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// Hub keeps one feed connection per technician.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]*client
	log     *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		clients: make(map[int64]*client),
		log:     log,
	}
}

func (h *Hub) register(technicianID int64, conn *websocket.Conn) *client {
	c := &client{technicianID: technicianID, conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	old := h.clients[technicianID]
	h.clients[technicianID] = c
	h.mu.Unlock()

	if old != nil {
		old.close()
	}
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if cur, ok := h.clients[c.technicianID]; ok && cur == c {
		delete(h.clients, c.technicianID)
	}
	h.mu.Unlock()
	c.close()
}

// Publish fans the event out to every connected technician. Slow clients
// whose buffer is full are dropped instead of blocking the caller.
func (h *Hub) Publish(event booking.JobEvent) {
	msg, err := json.Marshal(event)
	if err != nil {
		h.log.Error("encode job event", "error", err, "booking_ref", event.Reference)
		return
	}

	var slow []*client
	h.mu.RLock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("dropping slow feed client", "technician_id", c.technicianID)
		h.unregister(c)
	}
}

func (h *Hub) IsOnline(technicianID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[technicianID]
	return ok
}

func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects everyone; used on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[int64]*client)
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}
