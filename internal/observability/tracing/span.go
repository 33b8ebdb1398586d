package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartSpan starts a new span with the given name and optional attributes.
// The returned context carries the span and should be passed to downstream
// operations so child spans nest correctly.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := tracer().Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}

// StartStageSpan starts a span for one pipeline stage of a harvest run.
// The run ID and stage name are recorded as attributes so spans from the
// same run can be grouped in the tracing backend.
func StartStageSpan(ctx context.Context, runID, stage string) (context.Context, trace.Span) {
	return StartSpan(ctx, "harvest."+stage,
		attribute.String("harvest.run_id", runID),
		attribute.String("harvest.stage", stage),
	)
}

// EndSpan ends the span, recording err as the span status when non-nil.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
