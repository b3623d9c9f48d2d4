// Package otel configures OpenTelemetry tracing for lancerflow processes.
//
// Tracing is opt-in: LANCERFLOW_OTEL_ENDPOINT selects an OTLP/HTTP exporter,
// LANCERFLOW_OTEL_STDOUT=true prints spans to stderr, and with neither set
// (or LANCERFLOW_OTEL_ENABLED=false) no global provider is registered.
package otel

import (
	"context"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/louisbranch/lancerflow/internal/platform/config"
)

// Config selects the span exporter.
type Config struct {
	Enabled  bool   `env:"LANCERFLOW_OTEL_ENABLED"  envDefault:"true"`
	Endpoint string `env:"LANCERFLOW_OTEL_ENDPOINT"`
	Stdout   bool   `env:"LANCERFLOW_OTEL_STDOUT"`
	// Writer receives stdout spans; nil means os.Stderr.
	Writer io.Writer
}

// Shutdown flushes pending spans.
type Shutdown func(context.Context) error

func noop(context.Context) error { return nil }

// Setup reads Config from the environment and installs a tracer provider for
// serviceName. The returned Shutdown should be deferred.
func Setup(ctx context.Context, serviceName string) (Shutdown, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return noop, err
	}
	return SetupWithConfig(ctx, serviceName, cfg)
}

// SetupWithConfig installs a tracer provider for cfg. A disabled config, or
// one without an exporter, registers nothing.
func SetupWithConfig(ctx context.Context, serviceName string, cfg Config) (Shutdown, error) {
	exporter, err := newExporter(ctx, cfg)
	if err != nil || exporter == nil {
		return noop, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return noop, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return tp.Shutdown, nil
}

func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch {
	case !cfg.Enabled:
		return nil, nil
	case cfg.Endpoint != "":
		return otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	case cfg.Stdout:
		w := cfg.Writer
		if w == nil {
			w = os.Stderr
		}
		return stdouttrace.New(stdouttrace.WithWriter(w))
	default:
		return nil, nil
	}
}
