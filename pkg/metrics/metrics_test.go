package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/metric/noop"
)

func TestNewBuildsEveryInstrumentWithoutError(t *testing.T) {
	m, err := New(noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if m.EventsDispatched == nil || m.ToolCallDuration == nil || m.ToolCalls == nil ||
		m.ToolErrors == nil || m.BargeInElapsedMS == nil {
		t.Fatalf("expected every instrument to be initialized, got %+v", m)
	}
}

func TestRecordMethodsDoNotPanicAgainstNoopProvider(t *testing.T) {
	m, err := New(noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := context.Background()
	m.RecordEventDispatched(ctx, "bus.AgentStarted")
	m.RecordToolCall(ctx, "get_weather", "ok", 0.05)
	m.RecordToolCall(ctx, "get_weather", "error", 0.2)
	m.RecordBargeIn(ctx, 1234)
}
