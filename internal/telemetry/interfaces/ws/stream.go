package ws

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"bustrack/internal/telemetry/application/broadcast"
)

// Transport labels clients served by this package.
const Transport = "ws"

const (
	defaultWriteTimeout = 10 * time.Second
	defaultPingInterval = 30 * time.Second
	maxInboundBytes     = 512
)

// SnapshotFunc returns the current reading encoded for a welcome message.
type SnapshotFunc func() ([]byte, bool)

// StreamHandler upgrades viewers to WebSocket and streams every reading the
// hub publishes. The stream is push-only; inbound frames are discarded.
type StreamHandler struct {
	hub          *broadcast.Hub
	snapshot     SnapshotFunc
	logger       *log.Logger
	upgrader     websocket.Upgrader
	sendBuffer   int
	writeTimeout time.Duration
	pingInterval time.Duration
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

// WithWriteTimeout bounds each frame write.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(h *StreamHandler) {
		if timeout > 0 {
			h.writeTimeout = timeout
		}
	}
}

// WithPingInterval sets how often keepalive pings are sent.
func WithPingInterval(interval time.Duration) Option {
	return func(h *StreamHandler) {
		if interval > 0 {
			h.pingInterval = interval
		}
	}
}

// WithAllowedOrigins restricts browser origins. An empty list allows any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(h *StreamHandler) {
		if len(origins) == 0 {
			return
		}
		allowed := make(map[string]struct{}, len(origins))
		for _, origin := range origins {
			allowed[strings.TrimRight(strings.ToLower(origin), "/")] = struct{}{}
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[strings.TrimRight(strings.ToLower(origin), "/")]
			return ok
		}
	}
}

// NewStreamHandler constructs a WebSocket stream handler.
func NewStreamHandler(hub *broadcast.Hub, snapshot SnapshotFunc, logger *log.Logger, opts ...Option) (*StreamHandler, error) {
	if hub == nil {
		return nil, errors.New("ws stream: nil hub")
	}
	if logger == nil {
		logger = log.Default()
	}
	h := &StreamHandler{
		hub:      hub,
		snapshot: snapshot,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		writeTimeout: defaultWriteTimeout,
		pingInterval: defaultPingInterval,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// UpgradeOr serves upgrade requests and hands everything else to fallback.
// Viewers that connect to the server root rely on this.
func (h *StreamHandler) UpgradeOr(fallback http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			h.ServeHTTP(w, r)
			return
		}
		if fallback == nil {
			http.NotFound(w, r)
			return
		}
		fallback.ServeHTTP(w, r)
	})
}

// ServeHTTP handles GET /ws.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("ws stream: upgrade error: %v", err)
		return
	}

	client := broadcast.NewClient(Transport, h.sendBuffer)
	h.hub.RegisterWithWelcome(client, h.snapshot)
	h.logger.Printf("ws stream: client %s connected from %s", client.ID(), r.RemoteAddr)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writePump(conn, client)
	}()

	h.readPump(conn, client)
	h.hub.Unregister(client)
	<-writerDone
	h.logger.Printf("ws stream: client %s disconnected", client.ID())
}

// readPump returns when the peer goes away or the connection is closed by
// the write side.
func (h *StreamHandler) readPump(conn *websocket.Conn, client *broadcast.Client) {
	pongWait := h.pingInterval + h.writeTimeout
	conn.SetReadLimit(maxInboundBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && !client.Closed() {
				h.logger.Printf("ws stream: client %s read error: %v", client.ID(), err)
			}
			return
		}
	}
}

func (h *StreamHandler) writePump(conn *websocket.Conn, client *broadcast.Client) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case payload := <-client.Messages():
			_ = conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.logger.Printf("ws stream: client %s write error: %v", client.ID(), err)
				client.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				client.Close()
				return
			}
		case <-client.Done():
			deadline := time.Now().Add(h.writeTimeout)
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		}
	}
}
