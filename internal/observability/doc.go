// Package observability provides the pipeline's observability
// infrastructure: structured logging, Prometheus metrics, and OpenTelemetry
// tracing.
//
// Subpackages:
//   - logging: structured logging with slog
//   - metrics: Prometheus metrics registry and recorders
//   - tracing: OpenTelemetry span helpers for pipeline stages
//   - slo: service objective gauges computed from the run ledger
//
// Example usage:
//
//	import (
//	    "regharvest/internal/observability/logging"
//	    "regharvest/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("harvester started")
//
//	    metrics.RecordLookup(true)
//	}
package observability
