package integration_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"bustrack/internal/telemetry/application"
	"bustrack/internal/telemetry/application/broadcast"
	"bustrack/internal/telemetry/infrastructure/memory"
	telemetryhttp "bustrack/internal/telemetry/interfaces/http"
	"bustrack/internal/telemetry/interfaces/ws"
)

const report = `{"busNo":"B12","latitude":31.5204,"longitude":74.3587,"internal_battery":8.4,` +
	`"external_battery":8.2,"condition":"ok","signal_strength":20,"error":"","acceleration":"FLAT","speed":40}`

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newPipeline(t *testing.T) (*httptest.Server, *broadcast.Hub) {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	hub := broadcast.NewHub(logger)
	svc, err := application.NewService(memory.NewLatestStore(),
		application.WithNotifier(application.NewMultiNotifier(hub)),
		application.WithLogger(logger))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ingest, err := telemetryhttp.NewIngestHandler(svc, logger)
	if err != nil {
		t.Fatalf("ingest handler: %v", err)
	}
	latest, err := telemetryhttp.NewLatestHandler(svc)
	if err != nil {
		t.Fatalf("latest handler: %v", err)
	}
	stream, err := ws.NewStreamHandler(hub, svc.Snapshot, logger)
	if err != nil {
		t.Fatalf("stream handler: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/location/send-location", ingest)
	mux.Handle("/api/location/get-latest-location", latest)
	mux.Handle("/ws", stream)
	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})
	return server, hub
}

func TestPipeline_IngestReachesViewerAndLatest(t *testing.T) {
	server, hub := newPipeline(t)

	resp, err := http.Get(server.URL + "/api/location/get-latest-location")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 before any report, got %d", resp.StatusCode)
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Len() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("viewer never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	resp, err = http.Post(server.URL+"/api/location/send-location", "application/json", bytes.NewBufferString(report))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	var ack envelope
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || ack.Message != "Telemetry data received." {
		t.Fatalf("unexpected ack %d %+v", resp.StatusCode, ack)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, pushed, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read push: %v", err)
	}
	if !bytes.Equal(compact(t, pushed), compact(t, ack.Data)) {
		t.Fatalf("push %s differs from ack %s", pushed, ack.Data)
	}

	var reading map[string]any
	if err := json.Unmarshal(pushed, &reading); err != nil {
		t.Fatalf("decode push: %v", err)
	}
	if reading["internal_battery_percent"] != 100.0 || reading["external_battery_percent"] != 50.0 {
		t.Fatalf("unexpected battery percentages: %v", reading)
	}
	if _, ok := reading["internal_battery"]; ok {
		t.Fatalf("raw voltage leaked into broadcast")
	}

	resp, err = http.Get(server.URL + "/api/location/get-latest-location")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	var latest envelope
	if err := json.NewDecoder(resp.Body).Decode(&latest); err != nil {
		t.Fatalf("decode latest: %v", err)
	}
	resp.Body.Close()
	if !bytes.Equal(compact(t, latest.Data), compact(t, pushed)) {
		t.Fatalf("latest %s differs from push %s", latest.Data, pushed)
	}
}

func TestPipeline_InvalidReportNotBroadcast(t *testing.T) {
	server, hub := newPipeline(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Len() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("viewer never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	bad := strings.Replace(report, `"busNo":"B12",`, "", 1)
	resp, err := http.Post(server.URL+"/api/location/send-location", "application/json", strings.NewReader(bad))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	_ = conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	if _, payload, err := conn.ReadMessage(); err == nil {
		t.Fatalf("unexpected push %s", payload)
	}

	resp, err = http.Get(server.URL + "/api/location/get-latest-location")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func compact(t *testing.T, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		t.Fatalf("compact: %v", err)
	}
	return buf.Bytes()
}
