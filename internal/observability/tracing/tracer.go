package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracer returns the global tracer instance for the regharvest application.
// It is resolved on each call so a tracer provider installed after package
// init (e.g. in tests) is picked up.
func tracer() trace.Tracer {
	return otel.Tracer("regharvest")
}

// GetTracer returns the global tracer for creating spans.
// This tracer can be used throughout the application to create new spans.
//
// Example usage:
//
//	ctx, span := tracing.GetTracer().Start(ctx, "operation-name")
//	defer span.End()
func GetTracer() trace.Tracer {
	return tracer()
}
