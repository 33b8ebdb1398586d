package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"regharvest/internal/domain/entity"
)

// ReadProgressRows reads a partially-written progress file from an earlier
// run attempt. A missing file returns no rows and no error. Rows are returned
// as written, including short or incomplete trailing rows (padded with empty
// fields): judging completeness is the resume locator's job, not the
// reader's. A hard CSV parse error stops the scan at that point; the rows
// confirmed before it are still returned, since everything after the
// corruption is untrustworthy anyway.
func ReadProgressRows(path string) ([]entity.ProgressRow, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, entity.LocalIO(fmt.Errorf("open progress file %s: %w", path, err))
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var rows []entity.ProgressRow
	first := true
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			slog.Warn("progress file corrupt past this point, stopping scan",
				slog.String("path", path),
				slog.Int("rows_read", len(rows)),
				slog.String("error", err.Error()))
			break
		}
		if first {
			first = false
			if isProgressHeader(record) {
				continue
			}
		}
		rows = append(rows, recordToProgressRow(record))
	}
	return rows, nil
}

func isProgressHeader(record []string) bool {
	return len(record) > 0 && record[0] == ColCRD
}

func recordToProgressRow(record []string) entity.ProgressRow {
	return entity.ProgressRow{
		CRD:           field(record, 0),
		FilerName:     field(record, 1),
		VersionID:     field(record, 2),
		BrochureName:  field(record, 3),
		DateSubmitted: field(record, 4),
		Tags:          field(record, 5),
		LocalPath:     field(record, 6),
		Status:        field(record, 7),
	}
}

func progressRowToRecord(row entity.ProgressRow) []string {
	return []string{
		row.CRD, row.FilerName, row.VersionID, row.BrochureName,
		row.DateSubmitted, row.Tags, row.LocalPath, row.Status,
	}
}

// ProgressWriter appends rows to a run's progress file, one durable row per
// completed unit of work. Each Append flushes through to the file so an
// interrupted run loses at most the row being written, never rows already
// reported complete.
type ProgressWriter struct {
	f *os.File
	w *csv.Writer
}

// NewProgressWriter opens the progress file at path for appending, creating
// it (with a header row) when absent. Appending to an existing file resumes
// it in place.
func NewProgressWriter(path string) (*ProgressWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, entity.LocalIO(fmt.Errorf("open progress file %s: %w", path, err))
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, entity.LocalIO(fmt.Errorf("stat progress file %s: %w", path, err))
	}

	pw := &ProgressWriter{f: f, w: csv.NewWriter(f)}
	if info.Size() == 0 {
		if err := pw.write(ProgressHeader); err != nil {
			f.Close()
			return nil, err
		}
	}
	return pw, nil
}

// Append writes one progress row and flushes it to the file.
func (pw *ProgressWriter) Append(row entity.ProgressRow) error {
	return pw.write(progressRowToRecord(row))
}

func (pw *ProgressWriter) write(record []string) error {
	if err := pw.w.Write(record); err != nil {
		return entity.LocalIO(fmt.Errorf("write progress row: %w", err))
	}
	pw.w.Flush()
	if err := pw.w.Error(); err != nil {
		return entity.LocalIO(fmt.Errorf("flush progress row: %w", err))
	}
	return nil
}

// Close syncs and closes the underlying file.
func (pw *ProgressWriter) Close() error {
	pw.w.Flush()
	if err := pw.w.Error(); err != nil {
		pw.f.Close()
		return entity.LocalIO(fmt.Errorf("flush progress file: %w", err))
	}
	if err := pw.f.Close(); err != nil {
		return entity.LocalIO(fmt.Errorf("close progress file: %w", err))
	}
	return nil
}
