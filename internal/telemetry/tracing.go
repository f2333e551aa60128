// Package telemetry installs the OpenTelemetry tracer provider. Spans are
// exported to Google Cloud Trace when a project is configured; otherwise they
// are recorded and dropped, which still gives Pub/Sub notices a traceparent.
package telemetry

import (
	"context"
	"fmt"

	texporter "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// Config names the service and the optional Cloud Trace project.
type Config struct {
	ServiceName string
	Version     string
	ProjectID   string
}

// Option adjusts the tracer provider Init builds.
type Option func(*[]sdktrace.TracerProviderOption)

// WithExporter sends spans synchronously to exp, replacing Cloud Trace.
func WithExporter(exp sdktrace.SpanExporter) Option {
	return func(opts *[]sdktrace.TracerProviderOption) {
		*opts = append(*opts, sdktrace.WithSyncer(exp))
	}
}

// Init builds a tracer provider, installs it and the W3C propagators as the
// otel globals, and returns it so the caller can Shutdown on exit.
func Init(ctx context.Context, cfg Config, opts ...Option) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}
	for _, opt := range opts {
		opt(&tpOpts)
	}
	if len(opts) == 0 && cfg.ProjectID != "" {
		exporter, err := texporter.New(texporter.WithProjectID(cfg.ProjectID))
		if err != nil {
			return nil, fmt.Errorf("failed to create google trace exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}),
	)
	return tp, nil
}
