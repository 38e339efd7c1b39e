package metrics

import (
	"context"

	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// InitProvider wires a Prometheus-backed MeterProvider as the global OTel
// provider and returns the initialized Metrics plus a shutdown func to defer
// from cmd/agent's main.
func InitProvider(ctx context.Context, serviceVersion string) (*Metrics, func(context.Context) error, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName("rtvoice"),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	promExp, err := promexporter.New()
	if err != nil {
		return nil, nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExp),
	)
	otel.SetMeterProvider(mp)

	met, err := New(mp)
	if err != nil {
		return nil, nil, err
	}

	return met, mp.Shutdown, nil
}
