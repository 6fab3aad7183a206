package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestExtractIDsNoSpan(t *testing.T) {
	traceID, spanID := ExtractIDs(context.Background())
	assert.Empty(t, traceID)
	assert.Empty(t, spanID)
}

func TestStartSpanAndExtractIDs(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	prev := tracer
	tracer = tp.Tracer("tmodel-test")
	defer func() { tracer = prev }()

	ctx, span := StartSpan(context.Background(), "decode")
	defer span.End()

	traceID, spanID := ExtractIDs(ctx)
	require.NotEmpty(t, traceID)
	require.NotEmpty(t, spanID)
}
