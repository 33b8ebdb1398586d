// Package resume reconstructs, from a partially-written progress file, the
// first unit of work a restarted run has not yet durably completed. The same
// locator serves both stages that can be interrupted mid-run: brochure
// downloads and filer lookups; they differ only in what makes a row complete
// and which field aligns a row to the source sequence.
package resume

import (
	"fmt"
	"log/slog"

	"regharvest/internal/domain/entity"
)

// Complete judges whether a progress row represents a durably completed unit
// of work. A row can exist but be incomplete when a run was interrupted
// mid-write.
type Complete func(row *entity.ProgressRow) bool

// Key extracts the natural key used to align a progress row to its source
// row. Alignment by key rather than by position alone means a reordered
// source sequence is detected instead of silently resumed at a wrong offset.
type Key func(row *entity.ProgressRow) string

// DownloadComplete is the completeness predicate for the download stage: the
// unit succeeded and the document is bound to a local file.
func DownloadComplete(row *entity.ProgressRow) bool {
	return row.Succeeded() && row.LocalPath != ""
}

// LookupComplete is the completeness predicate for the lookup stage.
func LookupComplete(row *entity.ProgressRow) bool {
	return row.Succeeded()
}

// DownloadKey aligns download rows by brochure version id.
func DownloadKey(row *entity.ProgressRow) string {
	return row.VersionID
}

// LookupKey aligns lookup rows by filer CRD.
func LookupKey(row *entity.ProgressRow) string {
	return row.CRD
}

// Locate computes the index into sourceKeys of the first unit of work not yet
// durably completed by an earlier attempt.
//
// rows is the progress file content (nil when no file exists: index 0, full
// run). The scan counts confirmed-complete rows from the top and stops at the
// first row failing the completeness check; trailing rows past the stop are
// ignored since they may be partially written. Every confirmed-complete row
// must match the source row at the same position by natural key; any mismatch
// returns ErrResumeNotPossible so the caller falls back to a full run rather
// than guessing an offset. When every source row is already covered, Locate
// returns ErrNoWorkRemaining instead of index 0.
func Locate(sourceKeys []string, rows []entity.ProgressRow, complete Complete, key Key) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	confirmed := 0
	for i := range rows {
		if !complete(&rows[i]) {
			break
		}
		if confirmed >= len(sourceKeys) {
			return 0, fmt.Errorf("progress file has %d complete rows but source has %d: %w",
				confirmed+1, len(sourceKeys), entity.ErrResumeNotPossible)
		}
		if got := key(&rows[i]); got != sourceKeys[confirmed] {
			slog.Warn("progress row does not align with source sequence",
				slog.Int("position", confirmed),
				slog.String("progress_key", got),
				slog.String("source_key", sourceKeys[confirmed]))
			return 0, fmt.Errorf("row %d key %q does not match source key %q: %w",
				confirmed, got, sourceKeys[confirmed], entity.ErrResumeNotPossible)
		}
		confirmed++
	}

	if confirmed == len(sourceKeys) {
		return 0, entity.ErrNoWorkRemaining
	}

	slog.Info("resume point located",
		slog.Int("resume_index", confirmed),
		slog.Int("source_rows", len(sourceKeys)),
		slog.Int("progress_rows", len(rows)))
	return confirmed, nil
}
