package main

import (
	"context"

	"regharvest/internal/domain/entity"
	"regharvest/internal/repository"
	"regharvest/internal/usecase/harvest"
)

// ledgerRecorder adapts the run repository to the harvest RunRecorder port.
type ledgerRecorder struct {
	repo repository.RunRepository
}

func (r *ledgerRecorder) Record(ctx context.Context, summary harvest.Summary) error {
	return r.repo.Create(ctx, runRecordFromSummary(summary))
}

func runRecordFromSummary(s harvest.Summary) *entity.RunRecord {
	return &entity.RunRecord{
		RunID:              s.RunID,
		StartedAt:          s.StartedAt,
		Duration:           s.Duration,
		FeedConsumed:       s.FeedConsumed,
		FilersTotal:        s.FilersTotal,
		FilersNew:          s.FilersNew,
		FilersUpdated:      s.FilersUpdated,
		FilersSkipped:      s.FilersSkipped,
		Lookups:            s.Lookups,
		LookupFailures:     s.LookupFailures,
		Brochures:          s.Brochures,
		Downloads:          s.Downloads,
		DownloadFailures:   s.DownloadFailures,
		Tagged:             s.Tagged,
		Merged:             s.Merged,
		Duplicates:         s.Duplicates,
		FailuresByCategory: s.FailuresByCategory,
	}
}
