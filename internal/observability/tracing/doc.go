// Package tracing provides OpenTelemetry tracing integration.
//
// The harvester is a batch pipeline rather than a request server, so spans
// follow the stage structure of a run: one root span per harvest run with
// child spans for the lookup, download, and merge stages.
//
// Example usage:
//
//	import "regharvest/internal/observability/tracing"
//
//	func (s *Service) Run(ctx context.Context) error {
//	    ctx, span := tracing.StartSpan(ctx, "harvest.run")
//	    defer span.End()
//	    // ... run pipeline stages ...
//	}
package tracing
