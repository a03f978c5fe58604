package broadcast

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"bustrack/internal/observability/metrics"
	telemetry "bustrack/internal/telemetry/domain"
)

// Hub fans out readings to every registered streaming client.
//
// Publishing never blocks: a payload is offered to each client queue without
// waiting, and a client whose queue is full misses that payload. Payloads are
// enqueued under the membership lock, so every client sees broadcasts in the
// order they were published.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
	logger  *log.Logger
}

// NewHub constructs an empty hub.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{clients: make(map[*Client]struct{}), logger: logger}
}

// Register adds a client to the active set.
func (h *Hub) Register(c *Client) {
	h.RegisterWithWelcome(c, nil)
}

// RegisterWithWelcome adds a client and, when snapshot yields a payload,
// queues it as the client's first message. The snapshot is taken inside the
// membership critical section so no broadcast can land between the snapshot
// and the join.
func (h *Hub) RegisterWithWelcome(c *Client, snapshot func() ([]byte, bool)) {
	if h == nil || c == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.Closed() {
		return
	}
	if _, ok := h.clients[c]; ok {
		return
	}
	h.clients[c] = struct{}{}
	metrics.IncStreamConnections(c.Transport())
	if snapshot == nil {
		return
	}
	if payload, ok := snapshot(); ok {
		c.enqueue(payload)
	}
}

// Unregister removes and closes a client. Unknown or already removed clients
// are ignored.
func (h *Hub) Unregister(c *Client) {
	if h == nil || c == nil {
		return
	}
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	c.Close()
	if ok {
		metrics.DecStreamConnections(c.Transport())
	}
}

// Notify implements telemetry.ReadingNotifier.
func (h *Hub) Notify(_ context.Context, reading telemetry.Reading) {
	h.Broadcast(reading)
}

// Broadcast encodes the reading once and publishes it to every client.
func (h *Hub) Broadcast(reading telemetry.Reading) int {
	if h == nil {
		return 0
	}
	payload, err := json.Marshal(reading)
	if err != nil {
		h.logger.Printf("broadcast hub: encode reading error: %v", err)
		return 0
	}
	return h.Publish(payload)
}

// Publish offers an already serialized payload to every registered client and
// returns how many clients accepted it.
func (h *Hub) Publish(payload []byte) int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for c := range h.clients {
		if c.Closed() {
			delete(h.clients, c)
			metrics.DecStreamConnections(c.Transport())
			continue
		}
		if !c.enqueue(payload) {
			metrics.IncBroadcastDropped(c.Transport())
			h.logger.Printf("broadcast hub: client %s queue full, dropping update", c.ID())
			continue
		}
		delivered++
	}
	metrics.AddBroadcastDelivered(delivered)
	return delivered
}

// Len returns the number of registered clients.
func (h *Hub) Len() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close unregisters every client.
func (h *Hub) Close() {
	if h == nil {
		return
	}
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		h.Unregister(c)
	}
}
