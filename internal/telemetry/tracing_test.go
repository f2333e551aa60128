package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestInitInstallsGlobals exports spans and propagates traceparent headers.
// It mutates otel globals, so it does not run in parallel.
func TestInitInstallsGlobals(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tp, err := Init(context.Background(), Config{ServiceName: "file2text", Version: "test"}, WithExporter(exp))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	ctx, span := otel.Tracer("telemetry-test").Start(context.Background(), "scan")
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	span.End()

	require.NotEmpty(t, carrier.Get("traceparent"))
	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	require.Equal(t, "scan", spans[0].Name)
	require.True(t, spans[0].SpanContext.IsSampled())
}
