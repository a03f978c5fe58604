package sse

import (
	"log"
	"net/http"
	"time"

	"bustrack/internal/telemetry/application/broadcast"
)

// Transport labels clients served by this package.
const Transport = "sse"

const defaultKeepAlive = 25 * time.Second

// StreamHandler serves the live telemetry stream as server-sent events for
// viewers that cannot hold a WebSocket.
type StreamHandler struct {
	hub        *broadcast.Hub
	snapshot   func() ([]byte, bool)
	logger     *log.Logger
	sendBuffer int
	keepAlive  time.Duration
}

// Option configures the stream handler.
type Option func(*StreamHandler)

// WithSendBuffer sets the per-connection outbound queue size.
func WithSendBuffer(size int) Option {
	return func(h *StreamHandler) {
		if size > 0 {
			h.sendBuffer = size
		}
	}
}

// WithKeepAlive sets the interval between comment frames on an idle stream.
func WithKeepAlive(interval time.Duration) Option {
	return func(h *StreamHandler) {
		if interval > 0 {
			h.keepAlive = interval
		}
	}
}

// NewStreamHandler constructs a stream handler.
func NewStreamHandler(hub *broadcast.Hub, snapshot func() ([]byte, bool), logger *log.Logger, opts ...Option) *StreamHandler {
	if logger == nil {
		logger = log.Default()
	}
	h := &StreamHandler{hub: hub, snapshot: snapshot, logger: logger, keepAlive: defaultKeepAlive}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP handles GET /api/location/stream.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.hub == nil {
		http.Error(w, "stream not ready", http.StatusServiceUnavailable)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := broadcast.NewClient(Transport, h.sendBuffer)
	defer h.hub.Unregister(client)

	_, _ = w.Write([]byte("event: ready\ndata: {}\n\n"))
	flusher.Flush()

	h.hub.RegisterWithWelcome(client, h.snapshot)

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	notify := r.Context().Done()
	for {
		select {
		case payload := <-client.Messages():
			_, _ = w.Write([]byte("event: telemetry\n"))
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(payload)
			if _, err := w.Write([]byte("\n\n")); err != nil {
				h.logger.Printf("sse stream: client %s write error: %v", client.ID(), err)
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case <-client.Done():
			return
		case <-notify:
			return
		}
	}
}
