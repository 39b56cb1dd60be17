package typesafe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

// observer bundles the optional observability collectors of one guarded function.
// Every collector may be nil, which turns that kind of instrumentation off.
type observer struct {
	fnName           string
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

func newObserver(fnName string, cfg Config) *observer {
	return &observer{
		fnName:           fnName,
		logger:           cfg.Logger,
		contextualLogger: cfg.ContextualLogger,
		metricsCollector: cfg.MetricsCollector,
		tracingCollector: cfg.TracingCollector,
	}
}

func (o *observer) labels(kv ...string) map[string]string {
	labels := map[string]string{LogAttrFunction: o.fnName}
	for i := 0; i+1 < len(kv); i += 2 {
		labels[kv[i]] = kv[i+1]
	}

	return labels
}

// startCall logs the start of a call at debug level and opens the call span.
func (o *observer) startCall(ctx context.Context, c *call) (context.Context, SpanContext) {
	args := []any{LogAttrFunction, o.fnName, LogAttrCallID, c.id.String()}
	if tags := c.f.Tags(); len(tags) > 0 {
		args = append(args, LogAttrTags, strings.Join(tags, ","))
	}
	o.logDebug(ctx, LogMsgCallStarted, args...)

	if o.tracingCollector == nil {
		return ctx, nil
	}

	return o.tracingCollector.StartSpan(ctx, SpanNameCall, map[string]string{
		LogAttrFunction: o.fnName,
		LogAttrCallID:   c.id.String(),
	})
}

// finishCall records the outcome of a call: span status, duration and counter metrics, and a log entry.
func (o *observer) finishCall(ctx context.Context, c *call, err error) {
	duration := time.Since(c.started)
	status := statusOf(err)

	if c.span != nil {
		c.span.SetStatus(status)
		c.span.AddAttribute(LogAttrDurationMS, fmt.Sprintf("%.2f", float64(duration.Nanoseconds())/1e6))

		attrs := map[string]string{LogAttrStage: string(c.stage)}
		if err != nil {
			attrs[LogAttrError] = err.Error()
		}
		o.tracingCollector.FinishSpan(c.span, status, attrs)
	}

	labels := o.labels(LogAttrStatus, status)
	o.recordDuration(ctx, MetricCallDuration, duration, labels)
	o.incrementCounter(ctx, MetricCalls, labels)

	if err != nil {
		o.logInfo(ctx, LogMsgCallFailed,
			LogAttrFunction, o.fnName,
			LogAttrCallID, c.id.String(),
			LogAttrStage, string(c.stage),
			LogAttrStatus, status,
			LogAttrDurationMS, toMilliseconds(duration),
			LogAttrError, err.Error(),
		)

		return
	}

	o.logDebug(ctx, LogMsgCallCompleted,
		LogAttrFunction, o.fnName,
		LogAttrCallID, c.id.String(),
		LogAttrDurationMS, toMilliseconds(duration),
	)
}

func (o *observer) validationFailed(ctx context.Context, stage Stage) {
	o.incrementCounter(ctx, MetricValidationFailures, o.labels(LogAttrStage, string(stage)))
}

func (o *observer) sanitizerViolation(ctx context.Context, stage Stage) {
	o.incrementCounter(ctx, MetricSanitizerViolations, o.labels(LogAttrStage, string(stage)))
}

// hookFailed is the diagnostic sink of the hook isolation boundary.
// Without any configured logger the warning goes to slog.Default().
func (o *observer) hookFailed(ctx context.Context, hook string, e Event, err error) {
	o.incrementCounter(ctx, MetricHookFailures, o.labels(LogAttrHook, hook))

	args := []any{
		LogAttrHook, hook,
		LogAttrFunction, o.fnName,
		LogAttrCallID, e.CallID.String(),
		LogAttrError, err.Error(),
	}

	switch {
	case o.contextualLogger != nil:
		o.contextualLogger.WarnContext(ctx, LogMsgHookFailed, args...)
	case o.logger != nil:
		o.logger.Warn(LogMsgHookFailed, args...)
	default:
		slog.Default().WarnContext(ctx, LogMsgHookFailed, args...)
	}
}

func (o *observer) logDebug(ctx context.Context, msg string, args ...any) {
	if o.contextualLogger != nil {
		o.contextualLogger.DebugContext(ctx, msg, args...)
		return
	}

	if o.logger != nil {
		o.logger.Debug(msg, args...)
	}
}

func (o *observer) logInfo(ctx context.Context, msg string, args ...any) {
	if o.contextualLogger != nil {
		o.contextualLogger.InfoContext(ctx, msg, args...)
		return
	}

	if o.logger != nil {
		o.logger.Info(msg, args...)
	}
}

func (o *observer) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if o.metricsCollector == nil {
		return
	}

	// Use context-aware method if available
	if contextualCollector, ok := o.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	o.metricsCollector.IncrementCounter(metric, labels)
}

func (o *observer) recordDuration(ctx context.Context, metric string, d time.Duration, labels map[string]string) {
	if o.metricsCollector == nil {
		return
	}

	// Use context-aware method if available
	if contextualCollector, ok := o.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metric, d, labels)
		return
	}

	o.metricsCollector.RecordDuration(metric, d, labels)
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrTypeMismatch):
		return StatusRejected
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StatusCanceled
	default:
		return StatusError
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
