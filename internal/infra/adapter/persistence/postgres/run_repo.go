// Package postgres implements the run-ledger repository on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"regharvest/internal/domain/entity"
	"regharvest/internal/observability/metrics"
	"regharvest/internal/repository"
)

type RunRepo struct{ db *sql.DB }

func NewRunRepo(db *sql.DB) repository.RunRepository {
	return &RunRepo{db: db}
}

const runColumns = `run_id, started_at, duration_ms, feed_consumed,
filers_total, filers_new, filers_updated, filers_skipped,
lookups, lookup_failures, brochures, downloads, download_failures,
tagged, merged, duplicates, failures`

func (repo *RunRepo) Create(ctx context.Context, record *entity.RunRecord) error {
	failuresJSON, err := json.Marshal(record.FailuresByCategory)
	if err != nil {
		return fmt.Errorf("Create: marshal failures: %w", err)
	}

	const query = `
INSERT INTO runs (` + runColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	defer func(start time.Time) { metrics.RecordDBQuery("insert_run", time.Since(start)) }(time.Now())
	_, err = repo.db.ExecContext(ctx, query,
		record.RunID, record.StartedAt, record.Duration.Milliseconds(), record.FeedConsumed,
		record.FilersTotal, record.FilersNew, record.FilersUpdated, record.FilersSkipped,
		record.Lookups, record.LookupFailures, record.Brochures, record.Downloads,
		record.DownloadFailures, record.Tagged, record.Merged, record.Duplicates,
		failuresJSON,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// scanRun scans one ledger row including the failures JSON column.
func scanRun(scan func(dest ...any) error) (*entity.RunRecord, error) {
	var record entity.RunRecord
	var durationMs int64
	var failuresJSON []byte
	if err := scan(
		&record.RunID, &record.StartedAt, &durationMs, &record.FeedConsumed,
		&record.FilersTotal, &record.FilersNew, &record.FilersUpdated, &record.FilersSkipped,
		&record.Lookups, &record.LookupFailures, &record.Brochures, &record.Downloads,
		&record.DownloadFailures, &record.Tagged, &record.Merged, &record.Duplicates,
		&failuresJSON,
	); err != nil {
		return nil, err
	}

	record.Duration = time.Duration(durationMs) * time.Millisecond
	if len(failuresJSON) > 0 {
		if err := json.Unmarshal(failuresJSON, &record.FailuresByCategory); err != nil {
			return nil, fmt.Errorf("unmarshal failures: %w", err)
		}
	}
	return &record, nil
}

func (repo *RunRepo) Get(ctx context.Context, runID string) (*entity.RunRecord, error) {
	const query = `
SELECT ` + runColumns + `
FROM runs
WHERE run_id = $1
LIMIT 1`
	record, err := scanRun(repo.db.QueryRowContext(ctx, query, runID).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return record, nil
}

func (repo *RunRepo) ListRecent(ctx context.Context, limit int) ([]*entity.RunRecord, error) {
	const query = `
SELECT ` + runColumns + `
FROM runs
ORDER BY started_at DESC
LIMIT $1`
	defer func(start time.Time) { metrics.RecordDBQuery("list_recent_runs", time.Since(start)) }(time.Now())
	rows, err := repo.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ListRecent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]*entity.RunRecord, 0, limit)
	for rows.Next() {
		record, err := scanRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("ListRecent: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
