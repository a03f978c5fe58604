package telemetry

import (
	"context"
	"math"
)

// Full-charge reference voltages for the two on-board batteries.
const (
	InternalBatteryReferenceVolts = 8.4
	ExternalBatteryReferenceVolts = 16.4
)

// Reading is a validated, normalized telemetry report from a bus device.
// Raw battery voltages are replaced by percentages of the reference voltage.
type Reading struct {
	BusNo                  string  `json:"busNo"`
	Latitude               float64 `json:"latitude"`
	Longitude              float64 `json:"longitude"`
	Condition              string  `json:"condition"`
	SignalStrength         float64 `json:"signal_strength"`
	Error                  string  `json:"error"`
	Acceleration           string  `json:"acceleration"`
	Speed                  float64 `json:"speed"`
	InternalBatteryPercent int     `json:"internal_battery_percent"`
	ExternalBatteryPercent int     `json:"external_battery_percent"`
}

// BatteryPercent converts a voltage into a percentage of reference, rounded
// half away from zero. The result is not clamped to [0,100].
func BatteryPercent(voltage, reference float64) int {
	if reference == 0 {
		return 0
	}
	return int(math.Round(voltage / reference * 100))
}

// LatestStore holds the most recent reading.
type LatestStore interface {
	Put(reading Reading)
	Get() (Reading, bool)
}

// ReadingNotifier is told about every accepted reading.
type ReadingNotifier interface {
	Notify(ctx context.Context, reading Reading)
}
