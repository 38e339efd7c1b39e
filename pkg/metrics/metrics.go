// Package metrics exposes the OpenTelemetry instruments this agent records:
// dispatch volume, tool-call latency, and barge-in elapsed time, following
// the metric-instrument layout of the pack's OTel-based observability
// package (see DESIGN.md).
package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/mathisarends/rtvoice"

// latencyBuckets bounds tool-call latency histograms, in seconds.
var latencyBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Metrics holds every instrument this module records. All fields are safe
// for concurrent use — the underlying OTel instruments handle their own
// synchronization.
type Metrics struct {
	EventsDispatched metric.Int64Counter
	ToolCallDuration metric.Float64Histogram
	ToolCalls        metric.Int64Counter
	ToolErrors       metric.Int64Counter
	BargeInElapsedMS metric.Float64Histogram
}

// New creates a fully initialized Metrics using the given MeterProvider.
func New(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	met := &Metrics{}
	var err error

	if met.EventsDispatched, err = m.Int64Counter("rtvoice.bus.events_dispatched",
		metric.WithDescription("Total events dispatched on the event bus, by type."),
	); err != nil {
		return nil, err
	}

	if met.ToolCallDuration, err = m.Float64Histogram("rtvoice.tool.call_duration",
		metric.WithDescription("Latency of tool executions."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.ToolCalls, err = m.Int64Counter("rtvoice.tool.calls",
		metric.WithDescription("Total tool invocations, by tool name and status."),
	); err != nil {
		return nil, err
	}

	if met.ToolErrors, err = m.Int64Counter("rtvoice.tool.errors",
		metric.WithDescription("Total tool invocation errors, by tool name."),
	); err != nil {
		return nil, err
	}

	if met.BargeInElapsedMS, err = m.Float64Histogram("rtvoice.barge_in.elapsed_ms",
		metric.WithDescription("Milliseconds of assistant audio that had played before a barge-in interrupted it."),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// RecordEventDispatched increments the dispatch counter for an event type.
func (m *Metrics) RecordEventDispatched(ctx context.Context, eventType string) {
	m.EventsDispatched.Add(ctx, 1, metric.WithAttributes(attribute.String("type", eventType)))
}

// RecordToolCall records a tool invocation's outcome and latency.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string, seconds float64) {
	attrs := metric.WithAttributes(attribute.String("tool", tool), attribute.String("status", status))
	m.ToolCalls.Add(ctx, 1, attrs)
	m.ToolCallDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("tool", tool)))
	if status != "ok" {
		m.ToolErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("tool", tool)))
	}
}

// RecordBargeIn records how much assistant audio had played before a
// barge-in interrupted it.
func (m *Metrics) RecordBargeIn(ctx context.Context, playedMS int64) {
	m.BargeInElapsedMS.Record(ctx, float64(playedMS))
}
