package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecordAfterInit(t *testing.T) {
	Init(nil, nil)

	ObserveIngest(IngestResultSuccess, 5*time.Millisecond)
	IncIngestError("invalid_payload")
	IncStreamConnections("ws")
	IncStreamConnections("ws")
	DecStreamConnections("ws")
	AddBroadcastDelivered(3)
	AddBroadcastDelivered(0)
	IncBroadcastDropped("sse")
	IncMessageOperation("create", "")
	ObserveMessageExport("xlsx", ResultSuccess, time.Millisecond)

	if got := testutil.ToFloat64(ingestRequests.WithLabelValues(resultSuccess)); got != 1 {
		t.Fatalf("expected 1 ingest request, got %v", got)
	}
	if got := testutil.ToFloat64(ingestErrors.WithLabelValues("invalid_payload")); got != 1 {
		t.Fatalf("expected 1 ingest error, got %v", got)
	}
	if got := testutil.ToFloat64(streamConnections.WithLabelValues("ws")); got != 1 {
		t.Fatalf("expected 1 ws connection, got %v", got)
	}
	if got := testutil.ToFloat64(broadcastDelivered); got != 3 {
		t.Fatalf("expected 3 deliveries, got %v", got)
	}
	if got := testutil.ToFloat64(broadcastDropped.WithLabelValues("sse")); got != 1 {
		t.Fatalf("expected 1 drop, got %v", got)
	}
	if got := testutil.ToFloat64(messageOperations.WithLabelValues("create", resultSuccess)); got != 1 {
		t.Fatalf("expected 1 create, got %v", got)
	}

	// Init is idempotent.
	Init(nil, nil)
}
