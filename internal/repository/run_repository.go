package repository

import (
	"context"

	"regharvest/internal/domain/entity"
)

// RunRepository is the optional run ledger: one row per completed run.
type RunRepository interface {
	Create(ctx context.Context, record *entity.RunRecord) error
	Get(ctx context.Context, runID string) (*entity.RunRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.RunRecord, error)
}
