// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run metrics track whole harvest runs
var (
	// RunsTotal counts completed harvest runs by outcome
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_runs_total",
			Help: "Total number of harvest runs",
		},
		[]string{"outcome"}, // outcome: completed, failed
	)

	// RunDuration measures end-to-end harvest run duration in seconds
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "harvest_run_duration_seconds",
			Help:    "End-to-end harvest run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14), // up to ~2.3h
		},
	)

	// FilersClassifiedTotal counts filers by diff disposition
	FilersClassifiedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filers_classified_total",
			Help: "Total number of feed filers classified against the baseline",
		},
		[]string{"disposition"}, // disposition: new, updated, unchanged
	)
)

// Stage metrics track per-unit pipeline operations
var (
	// LookupsTotal counts brochure metadata lookups by result
	LookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brochure_lookups_total",
			Help: "Total number of per-filer brochure metadata lookups",
		},
		[]string{"result"}, // result: success, failure
	)

	// DownloadsTotal counts brochure document downloads by result
	DownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brochure_downloads_total",
			Help: "Total number of brochure document downloads",
		},
		[]string{"result"}, // result: success, failure, skipped
	)

	// DownloadDuration measures time to download one brochure document
	DownloadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "brochure_download_duration_seconds",
			Help:    "Time taken to download one brochure document",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	// ClassificationsTotal counts document classification attempts by result
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_classifications_total",
			Help: "Total number of document classification attempts",
		},
		[]string{"result"}, // result: success, failure, skipped
	)

	// FailuresTotal counts pipeline failures by stage and error category
	FailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_failures_total",
			Help: "Total number of pipeline failures",
		},
		[]string{"stage", "category"},
	)
)

// Merge metrics track the cumulative dataset fold
var (
	// RowsMergedTotal counts rows appended to the cumulative dataset
	RowsMergedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rows_merged_total",
			Help: "Total number of rows appended to the cumulative dataset",
		},
	)

	// DuplicatesSkippedTotal counts rows skipped because their brochure
	// version key was already recorded, either at discovery against the
	// baseline or during merge
	DuplicatesSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "duplicates_skipped_total",
			Help: "Total number of rows skipped as duplicates",
		},
	)
)

// Database metrics track database performance
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionsActive tracks active database connections
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordDBQuery records the duration of a named database operation
// (e.g. "insert_run", "list_recent_runs").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
