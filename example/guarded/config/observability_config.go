package config

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ObservabilityProviders holds the providers the example wires into its guarded functions.
type ObservabilityProviders struct {
	TracerProvider *trace.TracerProvider
	Registry       *prometheus.Registry
	Resource       *resource.Resource
}

// NewObservabilityProviders creates a TracerProvider for serviceName and a Prometheus registry
// with the Go runtime collectors. The TracerProvider becomes the global one.
// Spans are sampled but not exported; add an exporter with trace.WithBatcher to ship them.
func NewObservabilityProviders(ctx context.Context, serviceName string) (*ObservabilityProviders, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := trace.NewTracerProvider(
		trace.WithResource(res),
		trace.WithSampler(trace.AlwaysSample()),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return &ObservabilityProviders{
		TracerProvider: tracerProvider,
		Registry:       registry,
		Resource:       res,
	}, nil
}

// Shutdown flushes and stops the TracerProvider.
func (p *ObservabilityProviders) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return p.TracerProvider.Shutdown(ctx)
}
