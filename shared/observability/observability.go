// Package observability wires OpenTelemetry tracing and Prometheus metrics.
// Both are optional side channels: setup failures are returned to the caller
// to log and ignore, never to abort startup.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

const serviceName = "mastercreator"

// Setup initializes tracing and metrics and returns a shutdown function that
// flushes both providers.
func Setup(ctx context.Context) (func(context.Context) error, error) {
	tp, err := setupTracing()
	if err != nil {
		return nil, err
	}
	mp, err := setupMetrics()
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	return func(ctx context.Context) error {
		terr := tp.Shutdown(ctx)
		merr := mp.Shutdown(ctx)
		if terr != nil {
			return terr
		}
		return merr
	}, nil
}

// setupTracing installs a stdout span exporter. The exporter is a
// placeholder for OTLP; traces for a local single-user tool rarely need to
// leave the machine.
func setupTracing() (*trace.TracerProvider, error) {
	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("initialize trace exporter: %w", err)
	}
	res, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	provider := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return provider, nil
}

// setupMetrics installs a Prometheus reader and serves /metrics on its own
// port, separate from the API listener.
func setupMetrics() (*metric.MeterProvider, error) {
	exp, err := otelprom.New()
	if err != nil {
		return nil, fmt.Errorf("initialize prometheus exporter: %w", err)
	}
	mp := metric.NewMeterProvider(metric.WithReader(exp))
	otel.SetMeterProvider(mp)

	port := os.Getenv("METRICS_PORT")
	if port == "" {
		port = "2112"
	}
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		_ = http.ListenAndServe(":"+port, mux)
	}()
	return mp, nil
}
