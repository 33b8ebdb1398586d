// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for common logging patterns used throughout the application.
//
// Key features:
//   - JSON and text output formats
//   - Run ID propagation across pipeline stages
//   - Context-aware logging
//   - Configurable log levels
//
// Example usage:
//
//	import "regharvest/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("application started", slog.String("version", "1.0"))
//	}
//
//	func runPipeline(ctx context.Context, runID string) {
//	    logger := logging.WithRunID(slog.Default(), runID)
//	    logger.Info("starting harvest run")
//	}
package logging
