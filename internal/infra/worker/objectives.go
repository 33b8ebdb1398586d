package worker

import (
	"time"

	"regharvest/internal/domain/entity"
	"regharvest/internal/observability/slo"
)

// ObjectiveWindow is the number of recent runs the SLO gauges are computed
// over.
const ObjectiveWindow = 20

// UpdateObjectives recomputes the service level objective gauges from the
// most recent run ledger records. Called after each scheduled run; an empty
// ledger leaves the gauges untouched.
func UpdateObjectives(records []*entity.RunRecord) {
	if len(records) == 0 {
		return
	}

	var completed int
	var attempts, failures int64
	var maxDuration time.Duration
	for _, record := range records {
		if record.FeedConsumed {
			completed++
		}
		// Downloads counts successful units only; attempts include failures.
		attempts += record.Downloads + record.DownloadFailures
		failures += record.DownloadFailures
		if record.Duration > maxDuration {
			maxDuration = record.Duration
		}
	}

	slo.UpdateRunSuccessRatio(float64(completed) / float64(len(records)))
	slo.UpdateRunDurationMax(maxDuration.Seconds())
	if attempts > 0 {
		slo.UpdateDownloadFailureRate(float64(failures) / float64(attempts))
	}
}
