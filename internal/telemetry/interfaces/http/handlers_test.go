package http

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bustrack/internal/telemetry/application"
	"bustrack/internal/telemetry/infrastructure/memory"
)

const validBody = `{"busNo":"B12","latitude":31.5,"longitude":74.3,"internal_battery":8.4,` +
	`"external_battery":16.4,"condition":"ok","signal_strength":20,"error":"","acceleration":"FLAT","speed":40}`

type envelopeResponse struct {
	Message string         `json:"message"`
	Status  int            `json:"status"`
	Error   string         `json:"error"`
	Data    map[string]any `json:"data"`
}

func newHandlers(t *testing.T, opts ...IngestOption) (*IngestHandler, *LatestHandler) {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	svc, err := application.NewService(memory.NewLatestStore(), application.WithLogger(logger))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ingest, err := NewIngestHandler(svc, logger, opts...)
	if err != nil {
		t.Fatalf("new ingest handler: %v", err)
	}
	latest, err := NewLatestHandler(svc)
	if err != nil {
		t.Fatalf("new latest handler: %v", err)
	}
	return ingest, latest
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) envelopeResponse {
	t.Helper()
	var env envelopeResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", resp.Body.String(), err)
	}
	return env
}

func TestIngestHandler_Success(t *testing.T) {
	ingest, _ := newHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/api/location/send-location", strings.NewReader(validBody))
	resp := httptest.NewRecorder()
	ingest.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	env := decodeEnvelope(t, resp)
	if env.Message != "Telemetry data received." {
		t.Fatalf("unexpected message %q", env.Message)
	}
	if env.Data["internal_battery_percent"] != 100.0 || env.Data["external_battery_percent"] != 100.0 {
		t.Fatalf("unexpected battery percentages: %v", env.Data)
	}
	if env.Data["speed"] != 40.0 || env.Data["busNo"] != "B12" {
		t.Fatalf("unexpected data: %v", env.Data)
	}
	if _, ok := env.Data["internal_battery"]; ok {
		t.Fatal("raw voltage leaked into response")
	}
}

func TestIngestHandler_InvalidPayload(t *testing.T) {
	ingest, latest := newHandlers(t)

	for _, body := range []string{`{}`, `not json`, strings.Replace(validBody, `"speed":40`, `"speed":"40"`, 1)} {
		req := httptest.NewRequest(http.MethodPost, "/api/location/send-location", strings.NewReader(body))
		resp := httptest.NewRecorder()
		ingest.ServeHTTP(resp, req)

		if resp.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, resp.Code)
		}
		env := decodeEnvelope(t, resp)
		if env.Message != "Invalid telemetry data format" || env.Status != http.StatusBadRequest {
			t.Fatalf("unexpected envelope %+v", env)
		}
	}

	resp := httptest.NewRecorder()
	latest.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/location/get-latest-location", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("store should still be empty, got %d", resp.Code)
	}
}

func TestIngestHandler_MethodNotAllowed(t *testing.T) {
	ingest, _ := newHandlers(t)
	resp := httptest.NewRecorder()
	ingest.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/location/send-location", nil))
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
}

func TestIngestHandler_BodyTooLarge(t *testing.T) {
	ingest, _ := newHandlers(t, WithMaxBodyBytes(16))
	req := httptest.NewRequest(http.MethodPost, "/api/location/send-location", strings.NewReader(validBody))
	resp := httptest.NewRecorder()
	ingest.ServeHTTP(resp, req)
	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.Code)
	}
}

func TestLatestHandler(t *testing.T) {
	ingest, latest := newHandlers(t)

	resp := httptest.NewRecorder()
	latest.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/location/get-latest-location", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before ingest, got %d", resp.Code)
	}
	env := decodeEnvelope(t, resp)
	if env.Message != "No telemetry data available yet" {
		t.Fatalf("unexpected message %q", env.Message)
	}

	ingest.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/location/send-location", strings.NewReader(validBody)))
	second := strings.Replace(validBody, `"busNo":"B12"`, `"busNo":"B13"`, 1)
	ingest.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/location/send-location", strings.NewReader(second)))

	resp = httptest.NewRecorder()
	latest.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/location/get-latest-location", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	env = decodeEnvelope(t, resp)
	if env.Message != "Latest telemetry data" || env.Data["busNo"] != "B13" {
		t.Fatalf("unexpected envelope %+v", env)
	}

	resp = httptest.NewRecorder()
	latest.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/location/get-latest-location", nil))
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
}

func TestNewHandlers_NilService(t *testing.T) {
	if _, err := NewIngestHandler(nil, nil); err == nil {
		t.Fatal("expected error for nil service")
	}
	if _, err := NewLatestHandler(nil); err == nil {
		t.Fatal("expected error for nil service")
	}
}
