package db

import "database/sql"

// MigrateUp creates the run-ledger schema if it does not exist.
func MigrateUp(pool *sql.DB) error {
	if _, err := pool.Exec(`
CREATE TABLE IF NOT EXISTS runs (
    run_id            UUID PRIMARY KEY,
    started_at        TIMESTAMPTZ NOT NULL,
    duration_ms       BIGINT NOT NULL,
    feed_consumed     BOOLEAN NOT NULL,
    filers_total      BIGINT NOT NULL DEFAULT 0,
    filers_new        BIGINT NOT NULL DEFAULT 0,
    filers_updated    BIGINT NOT NULL DEFAULT 0,
    filers_skipped    BIGINT NOT NULL DEFAULT 0,
    lookups           BIGINT NOT NULL DEFAULT 0,
    lookup_failures   BIGINT NOT NULL DEFAULT 0,
    brochures         BIGINT NOT NULL DEFAULT 0,
    downloads         BIGINT NOT NULL DEFAULT 0,
    download_failures BIGINT NOT NULL DEFAULT 0,
    tagged            BIGINT NOT NULL DEFAULT 0,
    merged            BIGINT NOT NULL DEFAULT 0,
    duplicates        BIGINT NOT NULL DEFAULT 0,
    failures          JSONB,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	if _, err := pool.Exec(
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC)`,
	); err != nil {
		return err
	}
	return nil
}
