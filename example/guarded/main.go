// Command guarded shows a guarded function validating its input with JSON Schema and its result with
// CEL, reporting through slog, OpenTelemetry tracing and Prometheus metrics.
//
// Set TYPESAFE_LOG_LEVEL=debug to see every call, and TYPESAFE_METRICS_ADDR=:9102 to keep serving
// /metrics after the demo requests ran.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kombucha-js/runtime-typesafety/example/guarded/config"
	"github.com/kombucha-js/runtime-typesafety/typesafe"
	"github.com/kombucha-js/runtime-typesafety/typesafe/oteladapters"
	"github.com/kombucha-js/runtime-typesafety/typesafe/promadapters"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("guarded example failed: %v", err)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := config.NewObservabilityProviders(ctx, cfg.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to create observability providers: %w", err)
	}
	defer func() {
		if shutdownErr := providers.Shutdown(); shutdownErr != nil {
			log.Printf("observability shutdown failed: %v", shutdownErr)
		}
	}()

	logger := oteladapters.NewSlogBridgeLoggerWithHandler(
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}),
	)

	lendBook, err := newLendBook(
		map[string]bool{"r-blocked": true},
		typesafe.WithContextualLogger(logger),
		typesafe.WithMetrics(promadapters.NewMetricsCollector(providers.Registry)),
		typesafe.WithTracing(oteladapters.NewTracingCollector(providers.TracerProvider.Tracer(cfg.ServiceName))),
	)
	if err != nil {
		return fmt.Errorf("failed to guard lendBook: %w", err)
	}

	for _, req := range demoRequests() {
		report(lendBook.Call(ctx, req))
	}

	if cfg.MetricsAddr == "" {
		return nil
	}

	return serveMetrics(ctx, cfg.MetricsAddr, providers)
}

func demoRequests() []LendRequest {
	return []LendRequest{
		{BookID: "b-1", ReaderID: "r-1"},
		{BookID: "b-2", ReaderID: "r-2", Days: 21},
		{BookID: "book two", ReaderID: "r-2"},
		{BookID: "b-3", ReaderID: "r-3", Days: 40},
		{BookID: "b-4", ReaderID: "r-blocked"},
	}
}

func report(result any, err error) {
	switch {
	case err == nil:
		fmt.Printf("granted:  %+v\n", result)
	case errors.Is(err, typesafe.ErrInputValidation):
		fmt.Printf("invalid request: %v\n", err)
	case errors.Is(err, typesafe.ErrOutputValidation):
		fmt.Printf("loan violates policy: %v\n", err)
	default:
		fmt.Printf("refused:  %v\n", err)
	}
}

func serveMetrics(ctx context.Context, addr string, providers *config.ObservabilityProviders) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(providers.Registry, promhttp.HandlerOpts{}))

	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("serving metrics on %s/metrics", addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
