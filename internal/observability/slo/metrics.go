package slo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SLO targets define the service level objectives for the harvester.
// The harvester is a scheduled batch pipeline, so objectives are expressed
// over recent runs rather than over individual requests.
const (
	// RunSuccessSLO defines the target ratio of runs that consume the feed
	// and finish their merge (99% of scheduled runs).
	RunSuccessSLO = 0.99

	// RunDurationSLO defines the target upper bound for one complete run
	// in seconds (30 minutes).
	RunDurationSLO = 1800.0

	// DownloadFailureRateSLO defines the maximum acceptable ratio of failed
	// download units per run (5%).
	DownloadFailureRateSLO = 0.05
)

// SLO tracking metrics
// These gauges are updated after each run from the recent run ledger to track
// whether the pipeline is meeting its objectives.
var (
	// SLORunSuccessRatio tracks the ratio of recent runs that completed (0-1)
	// calculated as: completed_runs / total_runs over the lookback window
	SLORunSuccessRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_run_success_ratio",
			Help: "Ratio of recent harvest runs that completed (0-1), target: 0.99",
		},
	)

	// SLORunDurationMax tracks the longest recent run duration in seconds
	SLORunDurationMax = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_run_duration_max_seconds",
			Help: "Longest recent harvest run duration in seconds, target: <= 1800",
		},
	)

	// SLODownloadFailureRate tracks the ratio of failed download units (0-1)
	// calculated as: download_failures / downloads over the lookback window
	SLODownloadFailureRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_download_failure_rate_ratio",
			Help: "Ratio of failed download units in recent runs (0-1), target: 0.05",
		},
	)
)

// UpdateRunSuccessRatio updates the run success SLO metric.
// Call this after each run with the ratio computed from the run ledger.
func UpdateRunSuccessRatio(ratio float64) {
	SLORunSuccessRatio.Set(ratio)
}

// UpdateRunDurationMax updates the run duration SLO metric with the longest
// run duration observed over the lookback window, in seconds.
func UpdateRunDurationMax(seconds float64) {
	SLORunDurationMax.Set(seconds)
}

// UpdateDownloadFailureRate updates the download failure SLO metric.
//
// Example calculation:
//
//	failures, downloads := sumRecentRuns(records)
//	if downloads > 0 {
//	    slo.UpdateDownloadFailureRate(float64(failures) / float64(downloads))
//	}
func UpdateDownloadFailureRate(ratio float64) {
	SLODownloadFailureRate.Set(ratio)
}
