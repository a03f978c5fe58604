package http

import (
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"bustrack/internal/observability/metrics"
	"bustrack/internal/telemetry/application"
)

const defaultMaxBodyBytes = 64 << 10

// IngestHandler accepts telemetry reports from bus devices.
type IngestHandler struct {
	service      *application.Service
	logger       *log.Logger
	maxBodyBytes int64
}

// IngestOption configures the ingest handler.
type IngestOption func(*IngestHandler)

// WithMaxBodyBytes caps the accepted request body size.
func WithMaxBodyBytes(limit int64) IngestOption {
	return func(h *IngestHandler) {
		if limit > 0 {
			h.maxBodyBytes = limit
		}
	}
}

// NewIngestHandler constructs an ingest handler.
func NewIngestHandler(service *application.Service, logger *log.Logger, opts ...IngestOption) (*IngestHandler, error) {
	if service == nil {
		return nil, errors.New("telemetry ingest: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	h := &IngestHandler{service: service, logger: logger, maxBodyBytes: defaultMaxBodyBytes}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// ServeHTTP handles POST /api/location/send-location.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.IngestResultSuccess
	defer func() {
		metrics.ObserveIngest(result, time.Since(start))
	}()

	if r.Method != http.MethodPost {
		result = metrics.IngestResultError
		metrics.IncIngestError("method_not_allowed")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	defer r.Body.Close()
	if err != nil {
		result = metrics.IngestResultError
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			metrics.IncIngestError("body_too_large")
			writeError(w, http.StatusRequestEntityTooLarge, "Telemetry payload too large", nil)
			return
		}
		h.logger.Printf("telemetry ingest: read body error: %v", err)
		metrics.IncIngestError("read_body")
		writeError(w, http.StatusBadRequest, "read body error", nil)
		return
	}

	reading, err := h.service.Ingest(r.Context(), body)
	if err != nil {
		h.logger.Printf("telemetry ingest: invalid payload: %v", err)
		result = metrics.IngestResultError
		metrics.IncIngestError("invalid_payload")
		writeError(w, http.StatusBadRequest, "Invalid telemetry data format", err)
		return
	}

	h.logger.Printf("telemetry ingest: bus=%s lat=%f lng=%f speed=%.1f", reading.BusNo, reading.Latitude, reading.Longitude, reading.Speed)
	writeData(w, "Telemetry data received.", reading)
}
