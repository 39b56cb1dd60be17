package config

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestObservabilityProviders holds in-memory OpenTelemetry providers.
type TestObservabilityProviders struct {
	TracerProvider *trace.TracerProvider
	SpanExporter   *tracetest.InMemoryExporter
	MeterProvider  *sdkmetric.MeterProvider
	MetricReader   *sdkmetric.ManualReader
}

// NewTestObservabilityProviders creates providers that are shut down when t finishes.
func NewTestObservabilityProviders(t testing.TB) *TestObservabilityProviders {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	reader := sdkmetric.NewManualReader()

	p := &TestObservabilityProviders{
		TracerProvider: trace.NewTracerProvider(trace.WithSyncer(exporter)),
		SpanExporter:   exporter,
		MeterProvider:  sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		MetricReader:   reader,
	}

	t.Cleanup(func() {
		_ = p.TracerProvider.Shutdown(context.Background())
		_ = p.MeterProvider.Shutdown(context.Background())
	})

	return p
}

// CollectMetrics pulls the current metrics from the reader.
func (p *TestObservabilityProviders) CollectMetrics(t testing.TB) metricdata.ResourceMetrics {
	t.Helper()

	var resourceMetrics metricdata.ResourceMetrics
	if err := p.MetricReader.Collect(context.Background(), &resourceMetrics); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	return resourceMetrics
}
