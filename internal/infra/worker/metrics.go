package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"regharvest/internal/pkg/config"
)

// WorkerMetrics provides Prometheus metrics for the scheduled worker. It
// embeds the standard ConfigMetrics set (prefixed "worker_config_") and adds
// job-level metrics for harvest run scheduling:
//
//	worker_harvest_job_runs_total{status}
//	worker_harvest_job_duration_seconds
//	worker_harvest_job_filers_processed_total
//	worker_harvest_job_last_success_timestamp
type WorkerMetrics struct {
	*config.ConfigMetrics

	// JobRunsTotal counts scheduled harvest job runs by status
	// ("success" or "failure").
	JobRunsTotal *prometheus.CounterVec

	// JobDurationSeconds measures scheduled job execution duration.
	JobDurationSeconds prometheus.Histogram

	// JobFilersProcessedTotal counts filers processed across all job runs.
	JobFilersProcessedTotal prometheus.Counter

	// JobLastSuccessTimestamp records the Unix timestamp of the last
	// successful run, for staleness alerting.
	JobLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics creates the worker metric set. Metrics register with the
// Prometheus default registry via promauto, so call this at most once per
// process.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		JobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_harvest_job_runs_total",
			Help: "Total number of scheduled harvest job runs by status",
		}, []string{"status"}),

		JobDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_harvest_job_duration_seconds",
			Help:    "Duration of scheduled harvest job execution in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800, 3600},
		}),

		JobFilersProcessedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_harvest_job_filers_processed_total",
			Help: "Total number of filers processed across all harvest job runs",
		}),

		JobLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_harvest_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful harvest job run",
		}),
	}
}

// RecordJobRun increments the job run counter. Status should be "success"
// or "failure".
func (m *WorkerMetrics) RecordJobRun(status string) {
	m.JobRunsTotal.WithLabelValues(status).Inc()
}

// RecordJobDuration observes the duration of one scheduled job in seconds.
func (m *WorkerMetrics) RecordJobDuration(seconds float64) {
	m.JobDurationSeconds.Observe(seconds)
}

// RecordFilersProcessed adds the number of filers processed by one job run.
func (m *WorkerMetrics) RecordFilersProcessed(count int64) {
	m.JobFilersProcessedTotal.Add(float64(count))
}

// RecordLastSuccess records the current time as the last successful run.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.JobLastSuccessTimestamp.SetToCurrentTime()
}
