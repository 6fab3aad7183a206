// Package tracing wraps the OpenTelemetry trace API: StartSpan starts a
// span, and ExtractIDs reads the trace and span IDs that the logging
// wrapper attaches to log lines. The accumulators, the worker pool and the
// reply pump do not start spans of their own; IDs appear in logs only when
// the caller's context already carries a span.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("tmodel")

// StartSpan starts a span named name as a child of any span already present
// in ctx. Safe to call even when no SDK TracerProvider has been installed;
// otel falls back to a no-op tracer in that case.
func StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name)
}

// ExtractIDs returns the hex-encoded trace and span IDs present in ctx, or
// empty strings if ctx carries no valid span context.
func ExtractIDs(ctx context.Context) (traceID, spanID string) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return "", ""
	}
	return sc.TraceID().String(), sc.SpanID().String()
}
