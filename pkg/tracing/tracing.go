// Package tracing holds the process-wide tracer and span helpers used by
// every service layer. The tracer is nil until main wires a provider, and
// every helper degrades to a no-op in that state so unit tests need no
// tracing setup.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer trace.Tracer

// SetTracer sets the tracer to be used for tracing.
func SetTracer(t trace.Tracer) {
	tracer = t
}

// StartSpan starts a new span with the given name and returns the context and span.
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, spanName)
}

// AddTenant tags the active span with the partner tenant being consulted so
// per-partner latency shows up in traces.
func AddTenant(ctx context.Context, tenantID string) {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return
	}
	span.SetAttributes(attribute.String("federation.tenant_id", tenantID))
}

// GetTraceID returns the trace ID from the context, or "" when no span is
// recording.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return ""
	}
	return span.SpanContext().TraceID().String()
}
