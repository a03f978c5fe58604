package http

import (
	"errors"
	"net/http"

	"bustrack/internal/telemetry/application"
	telemetry "bustrack/internal/telemetry/domain"
)

// LatestHandler serves the most recent reading.
type LatestHandler struct {
	service *application.Service
}

// NewLatestHandler constructs a latest-reading handler.
func NewLatestHandler(service *application.Service) (*LatestHandler, error) {
	if service == nil {
		return nil, errors.New("telemetry latest: nil service")
	}
	return &LatestHandler{service: service}, nil
}

// ServeHTTP handles GET /api/location/get-latest-location.
func (h *LatestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	reading, err := h.service.Latest(r.Context())
	if err != nil {
		if errors.Is(err, telemetry.ErrNoDataYet) {
			writeError(w, http.StatusNotFound, "No telemetry data available yet", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "latest telemetry error", err)
		return
	}
	writeData(w, "Latest telemetry data", reading)
}
