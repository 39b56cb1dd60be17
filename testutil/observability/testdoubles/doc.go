// Package testdoubles provides test doubles (spies) for the observability interfaces of guarded functions.
//
//   - MetricsCollectorSpy, ContextualMetricsCollectorSpy: capture metrics recording calls
//   - TracingCollectorSpy: captures spans with their start and finish attributes
//   - ContextualLoggerSpy: captures structured logging with and without context
//   - LogHandlerSpy: captures slog handler calls and attributes
//
// These test doubles enable testing of observability instrumentation without telemetry backends.
package testdoubles
