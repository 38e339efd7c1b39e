package metrics

import (
	"context"
	"testing"
)

func TestInitProviderBuildsUsableMetrics(t *testing.T) {
	met, shutdown, err := InitProvider(context.Background(), "test")
	if err != nil {
		t.Fatalf("InitProvider failed: %v", err)
	}
	defer shutdown(context.Background())

	if met == nil {
		t.Fatal("expected non-nil Metrics")
	}

	// Recording against the real Prometheus-backed provider must not panic.
	met.RecordEventDispatched(context.Background(), "bus.AgentStarted")
}
