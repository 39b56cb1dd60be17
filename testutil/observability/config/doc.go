// Package config provides in-memory OpenTelemetry providers for tests of guarded functions.
//
// Spans are kept by a tracetest.InMemoryExporter and metrics are pulled on demand from an
// sdkmetric.ManualReader, so tests can assert on exported telemetry without a collector.
package config
