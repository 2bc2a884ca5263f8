package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "github.com/kbukum/spikekit"

// Span names.
const (
	SpanArrayRun  = "detector.run"
	SpanStreamRun = "detector.stream"
)

// Attribute keys.
const (
	AttrServiceName = "service.name"
	AttrRunID       = "spikes.run_id"
	AttrAlgorithm   = "spikes.algorithm"
	AttrMode        = "spikes.mode"
	AttrItems       = "spikes.items"
	AttrSpikes      = "spikes.count"
	AttrStatus      = "status"
	AttrCode        = "code"
)

// StartSpan starts a span on the global tracer provider.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentation).Start(ctx, name, opts...)
}

// Annotate sets attrs on the span in ctx, if it is recording.
func Annotate(ctx context.Context, attrs ...attribute.KeyValue) {
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attrs...)
	}
}

// Fail records err on the span in ctx and marks the span as failed.
func Fail(ctx context.Context, err error) {
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
