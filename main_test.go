package main

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func TestLoggingMiddleware_RecordsStatus(t *testing.T) {
	var buf strings.Builder
	logger := log.New(&buf, "", 0)
	handler := loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), logger)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if !strings.Contains(buf.String(), "http GET /healthz 418") {
		t.Fatalf("unexpected log line %q", buf.String())
	}
}

func TestLoggingMiddleware_Flushes(t *testing.T) {
	handler := loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatalf("expected flusher")
		}
		_, _ = w.Write([]byte("event: ready\n\n"))
		flusher.Flush()
	}), log.New(io.Discard, "", 0))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/location/stream", nil))
	if !rec.Flushed {
		t.Fatalf("expected flushed response")
	}
}

func TestLoggingMiddleware_WebSocketUpgrade(t *testing.T) {
	upgrader := websocket.Upgrader{}
	handler := loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte("hello"))
	}), log.New(io.Discard, "", 0))

	server := httptest.NewServer(handler)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial through middleware: %v", err)
	}
	defer conn.Close()
	_, payload, err := conn.ReadMessage()
	if err != nil || string(payload) != "hello" {
		t.Fatalf("unexpected frame %q %v", payload, err)
	}
}

type plainWriter struct{ http.ResponseWriter }

func TestStatusWriter_HijackUnsupported(t *testing.T) {
	w := &statusWriter{ResponseWriter: plainWriter{httptest.NewRecorder()}}
	var _ http.Hijacker = w
	if _, _, err := w.Hijack(); err == nil {
		t.Fatalf("expected hijack error")
	}
}
