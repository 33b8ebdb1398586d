package metrics

import (
	"time"
)

// RecordRunCompleted records a finished harvest run with its outcome and duration.
// Outcome should be "completed" for runs that consumed the feed and "failed" otherwise.
func RecordRunCompleted(feedConsumed bool, duration time.Duration) {
	outcome := "completed"
	if !feedConsumed {
		outcome = "failed"
	}
	RunsTotal.WithLabelValues(outcome).Inc()
	RunDuration.Observe(duration.Seconds())
}

// RecordFilersClassified records the diff breakdown of one harvest run.
func RecordFilersClassified(newCount, updatedCount, unchangedCount int64) {
	FilersClassifiedTotal.WithLabelValues("new").Add(float64(newCount))
	FilersClassifiedTotal.WithLabelValues("updated").Add(float64(updatedCount))
	FilersClassifiedTotal.WithLabelValues("unchanged").Add(float64(unchangedCount))
}

// RecordLookup records the result of one per-filer brochure metadata lookup.
func RecordLookup(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	LookupsTotal.WithLabelValues(result).Inc()
}

// RecordDownload records the result and duration of one brochure document download.
func RecordDownload(success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "failure"
	}
	DownloadsTotal.WithLabelValues(result).Inc()
	DownloadDuration.Observe(duration.Seconds())
}

// RecordDownloadSkipped records a download unit that was skipped without an
// attempt, typically because its metadata row was missing the version key.
func RecordDownloadSkipped() {
	DownloadsTotal.WithLabelValues("skipped").Inc()
}

// RecordClassification records the result of one document classification attempt.
// Result should be "success", "failure", or "skipped" (unsupported format).
func RecordClassification(result string) {
	ClassificationsTotal.WithLabelValues(result).Inc()
}

// RecordFailure records a pipeline failure at the given stage with its error
// category (e.g. "transient", "terminal", "local_io").
func RecordFailure(stage, category string) {
	FailuresTotal.WithLabelValues(stage, category).Inc()
}

// RecordMerge records the outcome of folding one run's output into the
// cumulative dataset.
func RecordMerge(appended, duplicates int64) {
	RowsMergedTotal.Add(float64(appended))
	DuplicatesSkippedTotal.Add(float64(duplicates))
}

// RecordDuplicateSkipped counts one row skipped because its brochure version
// key was already recorded.
func RecordDuplicateSkipped() {
	DuplicatesSkippedTotal.Inc()
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
