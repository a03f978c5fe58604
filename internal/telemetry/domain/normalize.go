package telemetry

import (
	"encoding/json"
	"fmt"
)

// FieldKind is the primitive JSON type a report field must carry.
type FieldKind string

const (
	KindString FieldKind = "string"
	KindNumber FieldKind = "number"
)

// Field describes one required field of a device report.
type Field struct {
	Name string
	Kind FieldKind
}

// Wire names of the device report.
const (
	FieldBusNo           = "busNo"
	FieldLatitude        = "latitude"
	FieldLongitude       = "longitude"
	FieldInternalBattery = "internal_battery"
	FieldExternalBattery = "external_battery"
	FieldCondition       = "condition"
	FieldSignalStrength  = "signal_strength"
	FieldError           = "error"
	FieldAcceleration    = "acceleration"
	FieldSpeed           = "speed"
)

var reportSchema = []Field{
	{Name: FieldBusNo, Kind: KindString},
	{Name: FieldLatitude, Kind: KindNumber},
	{Name: FieldLongitude, Kind: KindNumber},
	{Name: FieldInternalBattery, Kind: KindNumber},
	{Name: FieldExternalBattery, Kind: KindNumber},
	{Name: FieldCondition, Kind: KindString},
	{Name: FieldSignalStrength, Kind: KindNumber},
	{Name: FieldError, Kind: KindString},
	{Name: FieldAcceleration, Kind: KindString},
	{Name: FieldSpeed, Kind: KindNumber},
}

// Schema returns the required fields of a device report in validation order.
func Schema() []Field {
	return append([]Field(nil), reportSchema...)
}

// DecodeReading parses a JSON device report and normalizes it.
func DecodeReading(body []byte) (Reading, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return Reading{}, fmt.Errorf("%w: malformed json: %v", ErrInvalidTelemetry, err)
	}
	if raw == nil {
		return Reading{}, fmt.Errorf("%w: payload must be a json object", ErrInvalidTelemetry)
	}
	return Normalize(raw)
}

// Normalize validates a loosely typed report and converts battery voltages to
// percentages. Only presence and primitive type are checked; values such as
// out-of-range coordinates are accepted as-is.
func Normalize(raw map[string]any) (Reading, error) {
	for _, field := range reportSchema {
		if err := field.check(raw); err != nil {
			return Reading{}, err
		}
	}

	return Reading{
		BusNo:                  raw[FieldBusNo].(string),
		Latitude:               number(raw[FieldLatitude]),
		Longitude:              number(raw[FieldLongitude]),
		Condition:              raw[FieldCondition].(string),
		SignalStrength:         number(raw[FieldSignalStrength]),
		Error:                  raw[FieldError].(string),
		Acceleration:           raw[FieldAcceleration].(string),
		Speed:                  number(raw[FieldSpeed]),
		InternalBatteryPercent: BatteryPercent(number(raw[FieldInternalBattery]), InternalBatteryReferenceVolts),
		ExternalBatteryPercent: BatteryPercent(number(raw[FieldExternalBattery]), ExternalBatteryReferenceVolts),
	}, nil
}

func (f Field) check(raw map[string]any) error {
	value, ok := raw[f.Name]
	if !ok {
		return fmt.Errorf("%w: field %q is required", ErrInvalidTelemetry, f.Name)
	}
	switch f.Kind {
	case KindString:
		if _, ok := value.(string); ok {
			return nil
		}
	case KindNumber:
		if isNumber(value) {
			return nil
		}
	}
	return fmt.Errorf("%w: field %q must be a %s", ErrInvalidTelemetry, f.Name, f.Kind)
}

func isNumber(value any) bool {
	switch v := value.(type) {
	case float64, float32, int, int32, int64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	default:
		return false
	}
}

// number assumes isNumber already accepted the value.
func number(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	default:
		return 0
	}
}
