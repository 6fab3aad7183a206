package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func newTestLogger(buf *bytes.Buffer) Logger {
	return New(slog.New(slog.NewJSONHandler(buf, nil)))
}

func TestLoggerWithoutSpanOmitsCorrelationFields(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)
	l.InfoCtx(context.Background(), "model installed", "has_packet_model", true)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "model installed", entry["msg"])
	_, hasTrace := entry["trace_id"]
	assert.False(t, hasTrace)
}

func TestLoggerWithSpanAddsCorrelationFields(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("tmodel-test").Start(context.Background(), "decode")
	defer span.End()

	var buf bytes.Buffer
	l := newTestLogger(&buf)
	l.WarnCtx(ctx, "model hot-swap rejected", "error", "boom")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "model hot-swap rejected", entry["msg"])
	assert.NotEmpty(t, entry["trace_id"])
	assert.NotEmpty(t, entry["span_id"])
}
