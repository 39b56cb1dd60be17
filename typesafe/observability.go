package typesafe

import (
	"context"
	"time"
)

// Logger interface for hook failure warnings, call tracing at debug level and failure reporting.
// *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ContextualLogger interface for context-aware logging with automatic trace correlation.
// When configured it takes precedence over Logger. *slog.Logger satisfies it.
type ContextualLogger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// MetricsCollector interface for collecting guarded call metrics.
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
	RecordValue(metric string, value float64, labels map[string]string)
}

// ContextualMetricsCollector extends MetricsCollector with context-aware methods.
// Guarded functions use the context-aware methods when available.
type ContextualMetricsCollector interface {
	MetricsCollector
	RecordDurationContext(ctx context.Context, metric string, duration time.Duration, labels map[string]string)
	IncrementCounterContext(ctx context.Context, metric string, labels map[string]string)
	RecordValueContext(ctx context.Context, metric string, value float64, labels map[string]string)
}

// SpanContext represents an active tracing span that can be finished and updated with attributes.
type SpanContext interface {
	SetStatus(status string)
	AddAttribute(key, value string)
}

// TracingCollector interface for distributed tracing of guarded calls.
// It is dependency-free; see package oteladapters for an OpenTelemetry implementation.
type TracingCollector interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext)
	FinishSpan(spanCtx SpanContext, status string, attrs map[string]string)
}

const (
	// MetricCallDuration tracks guarded call duration in seconds.
	MetricCallDuration = "typesafe_call_duration_seconds"

	// MetricCalls tracks completed guarded calls by status.
	MetricCalls = "typesafe_calls_total"

	// MetricValidationFailures tracks rejected inputs and outputs by stage.
	MetricValidationFailures = "typesafe_validation_failures_total"

	// MetricHookFailures tracks lifecycle hooks that returned an error or panicked.
	MetricHookFailures = "typesafe_hook_failures_total"

	// MetricSanitizerViolations tracks undefined values removed by the sanitizer.
	MetricSanitizerViolations = "typesafe_sanitizer_violations_total"

	// SpanNameCall is the tracing span name of a guarded call.
	SpanNameCall = "typesafe.call"

	StatusSuccess  = "success"
	StatusError    = "error"
	StatusRejected = "rejected"
	StatusCanceled = "canceled"

	LogMsgCallStarted   = "typesafe call started"
	LogMsgCallCompleted = "typesafe call completed"
	LogMsgCallFailed    = "typesafe call failed"
	LogMsgHookFailed    = "typesafe hook failed, ignored"

	LogAttrFunction   = "fn"
	LogAttrCallID     = "call_id"
	LogAttrHook       = "hook"
	LogAttrStage      = "stage"
	LogAttrStatus     = "status"
	LogAttrError      = "error"
	LogAttrDurationMS = "duration_ms"
	LogAttrTags       = "tags"
)
