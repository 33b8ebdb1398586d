// Package merge folds one run's output rows into the append-only cumulative
// dataset, exactly once per brochure version id. Running the same merge twice
// yields the same cumulative key set as running it once.
package merge

import (
	"fmt"
	"log/slog"

	"regharvest/internal/domain/entity"
	"regharvest/internal/infra/dataset"
)

// Stats summarizes one merge: how many run rows were appended, skipped as
// already-recorded duplicates, or appended without a deduplicable key.
type Stats struct {
	Appended   int
	Duplicates int
	Keyless    int
}

// Fold appends runRows to the cumulative file at cumulativePath, skipping
// rows whose brochure version id is already recorded. Rows lacking a version
// id cannot be deduplicated and are appended unconditionally, with a warning.
// When no cumulative file exists, the run's output becomes the cumulative
// file. Existing rows are never rewritten.
func Fold(runRows []entity.ProgressRow, cumulativePath string) (*Stats, error) {
	seen, exists, err := dataset.ReadCumulativeKeys(cumulativePath)
	if err != nil {
		return nil, fmt.Errorf("load cumulative keys: %w", err)
	}
	if !exists {
		slog.Info("no cumulative file, run output becomes the dataset",
			slog.String("path", cumulativePath))
	}

	appender, err := dataset.OpenCumulative(cumulativePath)
	if err != nil {
		return nil, fmt.Errorf("open cumulative for append: %w", err)
	}

	stats := &Stats{}
	for i := range runRows {
		row := &runRows[i]
		key := row.VersionID
		if key == "" {
			slog.Warn("run row has no brochure version id, appending without dedup",
				slog.String("crd", row.CRD),
				slog.String("brochure_name", row.BrochureName))
			if err := appender.Append(*row); err != nil {
				appender.Close()
				return nil, err
			}
			stats.Keyless++
			continue
		}
		if _, dup := seen[key]; dup {
			stats.Duplicates++
			continue
		}
		if err := appender.Append(*row); err != nil {
			appender.Close()
			return nil, err
		}
		seen[key] = struct{}{}
		stats.Appended++
	}

	if err := appender.Close(); err != nil {
		return nil, err
	}

	slog.Info("merge complete",
		slog.String("path", cumulativePath),
		slog.Int("appended", stats.Appended),
		slog.Int("duplicates_skipped", stats.Duplicates),
		slog.Int("keyless_appended", stats.Keyless))
	return stats, nil
}

// FoldFile reads the run output file at runPath and folds it into the
// cumulative file. A missing run file is a no-op merge.
func FoldFile(runPath, cumulativePath string) (*Stats, error) {
	rows, err := dataset.ReadProgressRows(runPath)
	if err != nil {
		return nil, fmt.Errorf("read run output %s: %w", runPath, err)
	}
	if len(rows) == 0 {
		slog.Info("run output empty, nothing to merge", slog.String("path", runPath))
		return &Stats{}, nil
	}
	return Fold(rows, cumulativePath)
}
