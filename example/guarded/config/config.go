// Package config reads the settings of the guarded example from the environment and builds its
// observability providers.
package config

import (
	"fmt"
	"log/slog"
	"os"
)

// Environment variables read by FromEnv.
const (
	EnvLogLevel    = "TYPESAFE_LOG_LEVEL"
	EnvMetricsAddr = "TYPESAFE_METRICS_ADDR"
	EnvServiceName = "OTEL_SERVICE_NAME"
)

// DefaultServiceName is used when OTEL_SERVICE_NAME is not set.
const DefaultServiceName = "typesafe-guarded-example"

// Config holds the example's settings.
type Config struct {
	// LogLevel is the minimum level written to stdout. Guarded calls log at debug level,
	// failures at info level, hook failures at warn level.
	LogLevel slog.Level

	// MetricsAddr is the listen address of the Prometheus /metrics endpoint.
	// The endpoint is not served when empty.
	MetricsAddr string

	ServiceName string
}

// FromEnv reads Config from the environment.
func FromEnv() (Config, error) {
	cfg := Config{
		LogLevel:    slog.LevelInfo,
		MetricsAddr: os.Getenv(EnvMetricsAddr),
		ServiceName: os.Getenv(EnvServiceName),
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}

	if raw := os.Getenv(EnvLogLevel); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", EnvLogLevel, raw, err)
		}
	}

	return cfg, nil
}
