package telemetry

import "errors"

var (
	// ErrInvalidTelemetry marks a report that failed structural validation.
	ErrInvalidTelemetry = errors.New("invalid telemetry")
	// ErrNoDataYet is returned when no reading has been accepted since start.
	ErrNoDataYet = errors.New("no telemetry data available yet")
)
