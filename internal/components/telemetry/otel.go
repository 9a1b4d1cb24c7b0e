package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	exporterTimeout       = 3 * time.Second
	defaultMetricInterval = 30 * time.Second
)

// Tracer returns a named tracer from the global provider.
func Tracer(name string) oteltrace.Tracer {
	return otel.Tracer(name)
}

// Endpoint is an otlp collector url, grpc wins when both are set and leaving both empty
// disables export.
type Endpoint struct {
	Grpc    string            `json:"grpc"`
	Http    string            `json:"http"`
	Headers map[string]string `json:"headers"`
}

func (e Endpoint) Enabled() bool {
	return e.Grpc != "" || e.Http != ""
}

func (e Endpoint) transport() string {
	if e.Grpc != "" {
		return "grpc"
	}
	return "http"
}

// Config is the `telemetry` block of a service configuration.
type Config struct {
	Traces  Endpoint `json:"traces"`
	Metrics Endpoint `json:"metrics"`
	// MetricIntervalSeconds is how often metrics are pushed, 0 means every 30 seconds.
	MetricIntervalSeconds int `json:"metric_interval_seconds"`
}

// ConfigFromEnv exports traces and metrics over http to $OTEL_EXPORTER_OTLP_ENDPOINT when it is set.
func ConfigFromEnv() Config {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	return Config{
		Traces:  Endpoint{Http: endpoint},
		Metrics: Endpoint{Http: endpoint},
	}
}

// Telemetry holds the providers installed by Setup.
type Telemetry struct {
	shutdown []func(ctx context.Context) error
}

// Shutdown flushes and stops every installed provider.
func (t Telemetry) Shutdown(ctx context.Context) error {
	var errlist []error
	for _, shutdown := range t.shutdown {
		err := shutdown(ctx)
		if err != nil {
			errlist = append(errlist, err)
		}
	}
	return errors.Join(errlist...)
}

// Setup installs global trace and metric providers for every enabled endpoint of `config`,
// disabled endpoints keep the no-op global providers.
func Setup(ctx context.Context, serviceName string, config Config) (Telemetry, error) {
	if !config.Traces.Enabled() && !config.Metrics.Enabled() {
		slog.Info("otlp export disabled", "service", serviceName)
		return Telemetry{}, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return Telemetry{}, err
	}

	var t Telemetry
	if config.Traces.Enabled() {
		exporter, err := newSpanExporter(ctx, config.Traces)
		if err != nil {
			return t, fmt.Errorf("trace exporter: %w", err)
		}
		provider := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(provider)
		t.shutdown = append(t.shutdown, provider.Shutdown)
		slog.Info("exporting traces", "transport", config.Traces.transport())
	}

	if config.Metrics.Enabled() {
		exporter, err := newMetricExporter(ctx, config.Metrics)
		if err != nil {
			return t, fmt.Errorf("metric exporter: %w", err)
		}
		interval := defaultMetricInterval
		if config.MetricIntervalSeconds > 0 {
			interval = time.Duration(config.MetricIntervalSeconds) * time.Second
		}
		provider := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
			sdkmetric.WithResource(res),
		)
		otel.SetMeterProvider(provider)
		t.shutdown = append(t.shutdown, provider.Shutdown)
		slog.Info("exporting metrics", "transport", config.Metrics.transport(), "interval", interval)
	}

	return t, nil
}

func newSpanExporter(ctx context.Context, e Endpoint) (sdktrace.SpanExporter, error) {
	ctx, cancel := context.WithTimeout(ctx, exporterTimeout)
	defer cancel()

	if e.Grpc != "" {
		return otlptracegrpc.New(ctx, otlptracegrpc.WithEndpointURL(e.Grpc), otlptracegrpc.WithHeaders(e.Headers))
	}
	return otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(e.Http), otlptracehttp.WithHeaders(e.Headers))
}

func newMetricExporter(ctx context.Context, e Endpoint) (sdkmetric.Exporter, error) {
	ctx, cancel := context.WithTimeout(ctx, exporterTimeout)
	defer cancel()

	if e.Grpc != "" {
		return otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpointURL(e.Grpc), otlpmetricgrpc.WithHeaders(e.Headers))
	}
	return otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(e.Http), otlpmetrichttp.WithHeaders(e.Headers))
}
