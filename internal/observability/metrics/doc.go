// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - Harvest run metrics (count by outcome, duration)
//   - Pipeline stage metrics (lookups, downloads, classification)
//   - Failure metrics broken down by stage and error category
//   - Database connection pool metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "regharvest/internal/observability/metrics"
//
//	func downloadBrochure(ctx context.Context, url string) {
//	    start := time.Now()
//	    err := downloader.DownloadFile(ctx, url, dest)
//	    metrics.RecordDownload(err == nil, time.Since(start))
//	}
package metrics
