package harvest

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"regharvest/internal/domain/entity"
)

// RunStats is the statistics aggregate for one run. It is constructed per
// run and passed to collaborators rather than living in package-level
// globals, so parallel runs and tests never share counters. All updates are
// atomic: the reference flow is sequential, but the download stage may run
// under bounded parallelism.
type RunStats struct {
	RunID     string
	StartedAt time.Time

	FilersTotal      atomic.Int64
	FilersNew        atomic.Int64
	FilersUpdated    atomic.Int64
	FilersSkipped    atomic.Int64
	Lookups          atomic.Int64
	LookupFailures   atomic.Int64
	Brochures        atomic.Int64
	Downloads        atomic.Int64
	DownloadFailures atomic.Int64
	Tagged           atomic.Int64
	Merged           atomic.Int64
	Duplicates       atomic.Int64

	// failures counts unit failures by error category, indexed by
	// entity.Category.
	failures [5]atomic.Int64
}

// NewRunStats creates the aggregate for a fresh run.
func NewRunStats() *RunStats {
	return &RunStats{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
}

// CountFailure records one unit failure under its error category.
func (s *RunStats) CountFailure(err error) {
	c := entity.CategoryOf(err)
	if int(c) >= len(s.failures) {
		c = entity.CategoryUnknown
	}
	s.failures[c].Add(1)
}

// FailuresByCategory returns a snapshot of the per-category failure counts,
// keyed by category name.
func (s *RunStats) FailuresByCategory() map[string]int64 {
	out := make(map[string]int64, len(s.failures))
	for i := range s.failures {
		if n := s.failures[i].Load(); n > 0 {
			out[entity.Category(i).String()] = n
		}
	}
	return out
}

// Summary is the immutable end-of-run report handed to the notifier and the
// run ledger.
type Summary struct {
	RunID              string
	StartedAt          time.Time
	Duration           time.Duration
	FilersTotal        int64
	FilersNew          int64
	FilersUpdated      int64
	FilersSkipped      int64
	Lookups            int64
	LookupFailures     int64
	Brochures          int64
	Downloads          int64
	DownloadFailures   int64
	Tagged             int64
	Merged             int64
	Duplicates         int64
	FailuresByCategory map[string]int64

	// FeedConsumed reports whether the feed stream was read to completion.
	// The run's exit status reflects this, not per-unit success.
	FeedConsumed bool
}

// Summarize freezes the aggregate into a Summary.
func (s *RunStats) Summarize(feedConsumed bool) Summary {
	return Summary{
		RunID:              s.RunID,
		StartedAt:          s.StartedAt,
		Duration:           time.Since(s.StartedAt),
		FilersTotal:        s.FilersTotal.Load(),
		FilersNew:          s.FilersNew.Load(),
		FilersUpdated:      s.FilersUpdated.Load(),
		FilersSkipped:      s.FilersSkipped.Load(),
		Lookups:            s.Lookups.Load(),
		LookupFailures:     s.LookupFailures.Load(),
		Brochures:          s.Brochures.Load(),
		Downloads:          s.Downloads.Load(),
		DownloadFailures:   s.DownloadFailures.Load(),
		Tagged:             s.Tagged.Load(),
		Merged:             s.Merged.Load(),
		Duplicates:         s.Duplicates.Load(),
		FailuresByCategory: s.FailuresByCategory(),
		FeedConsumed:       feedConsumed,
	}
}
