package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kombucha-js/runtime-typesafety/typesafe"
	"github.com/kombucha-js/runtime-typesafety/typesafe/oteladapters"
)

func newRecordingTracer() (*tracetest.InMemoryExporter, *oteladapters.TracingCollector) {
	exporter := tracetest.NewInMemoryExporter()
	provider := trace.NewTracerProvider(trace.WithSyncer(exporter))

	return exporter, oteladapters.NewTracingCollector(provider.Tracer("test"))
}

func Test_TracingCollector_StartAndFinishSpan(t *testing.T) {
	exporter, collector := newRecordingTracer()

	ctx, spanCtx := collector.StartSpan(context.Background(), typesafe.SpanNameCall, map[string]string{
		"fn":      "double",
		"call_id": "0198",
	})
	spanCtx.AddAttribute("duration_ms", "1.00")
	collector.FinishSpan(spanCtx, typesafe.StatusSuccess, map[string]string{"stage": "leave"})

	assert.NotNil(t, ctx)
	spans := exporter.GetSpans()
	require.Len(t, spans, 1, "Expected exactly one span")

	span := spans[0]
	assert.Equal(t, typesafe.SpanNameCall, span.Name)
	assertSpanHasAttribute(t, span, "fn", "double")
	assertSpanHasAttribute(t, span, "call_id", "0198")
	assertSpanHasAttribute(t, span, "duration_ms", "1.00")
	assertSpanHasAttribute(t, span, "stage", "leave")
	assert.Equal(t, codes.Ok, span.Status.Code)
}

func Test_TracingCollector_StatusMapping(t *testing.T) {
	tests := []struct {
		status      string
		code        codes.Code
		description string
	}{
		{status: typesafe.StatusSuccess, code: codes.Ok, description: ""},
		{status: typesafe.StatusError, code: codes.Error, description: "Call failed"},
		{status: typesafe.StatusRejected, code: codes.Error, description: "Validation rejected"},
		{status: typesafe.StatusCanceled, code: codes.Error, description: "Call canceled"},
		{status: "unknown", code: codes.Unset, description: ""},
	}

	for _, tc := range tests {
		t.Run(tc.status, func(t *testing.T) {
			exporter, collector := newRecordingTracer()

			_, spanCtx := collector.StartSpan(context.Background(), "op", nil)
			collector.FinishSpan(spanCtx, tc.status, nil)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tc.code, spans[0].Status.Code)
			assert.Equal(t, tc.description, spans[0].Status.Description)
		})
	}
}

func Test_TracingCollector_UnknownStatusBecomesAttribute(t *testing.T) {
	exporter, collector := newRecordingTracer()

	_, spanCtx := collector.StartSpan(context.Background(), "op", nil)
	collector.FinishSpan(spanCtx, "degraded", nil)

	assertSpanHasAttribute(t, exporter.GetSpans()[0], "status", "degraded")
}

func Test_TracingCollector_ChildOfContextSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := trace.NewTracerProvider(trace.WithSyncer(exporter))
	tracer := provider.Tracer("test")
	collector := oteladapters.NewTracingCollector(tracer)

	parentCtx, parent := tracer.Start(context.Background(), "request")
	_, spanCtx := collector.StartSpan(parentCtx, typesafe.SpanNameCall, nil)
	collector.FinishSpan(spanCtx, typesafe.StatusSuccess, nil)
	parent.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
	assert.Equal(t, spans[1].SpanContext.TraceID(), spans[0].SpanContext.TraceID())
}

type foreignSpanContext struct{}

func (foreignSpanContext) SetStatus(string)            {}
func (foreignSpanContext) AddAttribute(string, string) {}

func Test_TracingCollector_IgnoresForeignSpanContexts(t *testing.T) {
	exporter, collector := newRecordingTracer()

	assert.NotPanics(t, func() {
		collector.FinishSpan(foreignSpanContext{}, typesafe.StatusSuccess, nil)
	})
	assert.Empty(t, exporter.GetSpans())
}

func assertSpanHasAttribute(t *testing.T, span tracetest.SpanStub, key, expectedValue string) {
	t.Helper()
	found := false
	for _, attr := range span.Attributes {
		if attr.Key == attribute.Key(key) && attr.Value.AsString() == expectedValue {
			found = true
			break
		}
	}
	assert.True(t, found, "Span should have attribute %s=%s", key, expectedValue)
}
