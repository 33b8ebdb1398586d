package worker

import (
	"testing"
	"time"

	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regharvest/internal/domain/entity"
	"regharvest/internal/observability/slo"
)

func gaugeValue(t *testing.T, write func(*io_prometheus_client.Metric) error) float64 {
	t.Helper()
	metric := &io_prometheus_client.Metric{}
	require.NoError(t, write(metric))
	return metric.GetGauge().GetValue()
}

func TestUpdateObjectives(t *testing.T) {
	records := []*entity.RunRecord{
		{FeedConsumed: true, Duration: 5 * time.Minute, Downloads: 90, DownloadFailures: 10},
		{FeedConsumed: true, Duration: 12 * time.Minute, Downloads: 100, DownloadFailures: 0},
		{FeedConsumed: false, Duration: 30 * time.Second, Downloads: 0, DownloadFailures: 0},
		{FeedConsumed: true, Duration: 2 * time.Minute, Downloads: 0, DownloadFailures: 0},
	}

	UpdateObjectives(records)

	assert.InDelta(t, 0.75, gaugeValue(t, slo.SLORunSuccessRatio.Write), 1e-9)
	assert.InDelta(t, 720.0, gaugeValue(t, slo.SLORunDurationMax.Write), 1e-9)
	assert.InDelta(t, 0.05, gaugeValue(t, slo.SLODownloadFailureRate.Write), 1e-9)
}

func TestUpdateObjectives_EmptyLedgerLeavesGauges(t *testing.T) {
	slo.UpdateRunSuccessRatio(0.5)

	UpdateObjectives(nil)

	assert.InDelta(t, 0.5, gaugeValue(t, slo.SLORunSuccessRatio.Write), 1e-9)
}

func TestUpdateObjectives_NoDownloadsKeepsFailureRate(t *testing.T) {
	slo.UpdateDownloadFailureRate(0.02)

	UpdateObjectives([]*entity.RunRecord{
		{FeedConsumed: true, Duration: time.Minute},
	})

	assert.InDelta(t, 0.02, gaugeValue(t, slo.SLODownloadFailureRate.Write), 1e-9)
}
