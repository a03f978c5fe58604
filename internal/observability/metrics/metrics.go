package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "bustrack_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	ingestRequests *prometheus.CounterVec
	ingestErrors   *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec

	streamConnections  *prometheus.GaugeVec
	broadcastDelivered prometheus.Counter
	broadcastDropped   *prometheus.CounterVec

	messageOperations *prometheus.CounterVec
	messageExports    *prometheus.CounterVec
	messageExportTime *prometheus.HistogramVec
)

// Init registers service metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		ingestRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_requests_total",
				Help: "Total telemetry ingest requests by result",
			},
			[]string{"result"},
		)
		ingestErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_errors_total",
				Help: "Total telemetry ingest errors by reason",
			},
			[]string{"reason"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Telemetry ingest latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		streamConnections = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "stream_connections",
				Help: "Open streaming connections by transport",
			},
			[]string{"transport"},
		)
		broadcastDelivered = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "broadcast_delivered_total",
				Help: "Readings queued to streaming clients",
			},
		)
		broadcastDropped = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "broadcast_dropped_total",
				Help: "Readings dropped for saturated clients by transport",
			},
			[]string{"transport"},
		)

		messageOperations = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "message_operations_total",
				Help: "Contact message operations by operation and result",
			},
			[]string{"operation", "result"},
		)
		messageExports = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "message_export_total",
				Help: "Contact message exports by format and result",
			},
			[]string{"format", "result"},
		)
		messageExportTime = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "message_export_latency_seconds",
				Help:    "Contact message export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			ingestRequests,
			ingestErrors,
			ingestLatency,
			streamConnections,
			broadcastDelivered,
			broadcastDropped,
			messageOperations,
			messageExports,
			messageExportTime,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveIngest records ingest request duration and result.
func ObserveIngest(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if ingestRequests != nil {
		ingestRequests.WithLabelValues(result).Inc()
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncIngestError increments ingest error counter.
func IncIngestError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if ingestErrors != nil {
		ingestErrors.WithLabelValues(reason).Inc()
	}
}

// IncStreamConnections tracks a newly registered streaming client.
func IncStreamConnections(transport string) {
	if streamConnections != nil {
		streamConnections.WithLabelValues(labelOrUnknown(transport)).Inc()
	}
}

// DecStreamConnections tracks a removed streaming client.
func DecStreamConnections(transport string) {
	if streamConnections != nil {
		streamConnections.WithLabelValues(labelOrUnknown(transport)).Dec()
	}
}

// AddBroadcastDelivered counts queued deliveries of one broadcast.
func AddBroadcastDelivered(count int) {
	if count <= 0 {
		return
	}
	if broadcastDelivered != nil {
		broadcastDelivered.Add(float64(count))
	}
}

// IncBroadcastDropped counts a reading dropped for a saturated client.
func IncBroadcastDropped(transport string) {
	if broadcastDropped != nil {
		broadcastDropped.WithLabelValues(labelOrUnknown(transport)).Inc()
	}
}

// IncMessageOperation counts a contact message operation.
func IncMessageOperation(operation, result string) {
	if result == "" {
		result = resultSuccess
	}
	if messageOperations != nil {
		messageOperations.WithLabelValues(labelOrUnknown(operation), result).Inc()
	}
}

// ObserveMessageExport records export latency and result.
func ObserveMessageExport(format, result string, duration time.Duration) {
	format = labelOrUnknown(format)
	if result == "" {
		result = resultSuccess
	}
	if messageExports != nil {
		messageExports.WithLabelValues(format, result).Inc()
	}
	if messageExportTime != nil {
		messageExportTime.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

func labelOrUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

// Exported constants for callers.
const (
	IngestResultSuccess = resultSuccess
	IngestResultError   = resultError

	ResultSuccess = resultSuccess
	ResultError   = resultError
)
