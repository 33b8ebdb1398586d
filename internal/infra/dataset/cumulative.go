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

// ReadCumulativeKeys loads the full set of brochure version ids already
// recorded in the cumulative file. exists reports whether the file was
// present at all; the merge stage treats a missing file as "first run"
// rather than an error.
func ReadCumulativeKeys(path string) (keys map[string]struct{}, exists bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]struct{}{}, false, nil
		}
		return nil, false, entity.LocalIO(fmt.Errorf("open cumulative file %s: %w", path, err))
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]struct{}{}, true, nil
		}
		return nil, true, entity.DataShape(fmt.Errorf("read cumulative header %s: %w", path, err))
	}

	idx := resolveHeader(header)
	if idx.key < 0 {
		return nil, true, entity.DataShape(
			fmt.Errorf("cumulative file %s has no brochure version id column", path))
	}

	keys = map[string]struct{}{}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			slog.Warn("skipping malformed cumulative row",
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}
		if key := field(record, idx.key); key != "" {
			keys[key] = struct{}{}
		}
	}
	return keys, true, nil
}

// CumulativeAppender appends rows to the append-only cumulative dataset.
// Existing rows are never rewritten.
type CumulativeAppender struct {
	f *os.File
	w *csv.Writer
}

// OpenCumulative opens the cumulative file at path for appending, writing
// the header row when the file is new or empty.
func OpenCumulative(path string) (*CumulativeAppender, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, entity.LocalIO(fmt.Errorf("open cumulative file %s: %w", path, err))
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, entity.LocalIO(fmt.Errorf("stat cumulative file %s: %w", path, err))
	}

	ca := &CumulativeAppender{f: f, w: csv.NewWriter(f)}
	if info.Size() == 0 {
		if err := ca.write(CumulativeHeader); err != nil {
			f.Close()
			return nil, err
		}
	}
	return ca, nil
}

// Append writes one row, dropping the progress-only status column.
func (ca *CumulativeAppender) Append(row entity.ProgressRow) error {
	return ca.write([]string{
		row.CRD, row.FilerName, row.VersionID, row.BrochureName,
		row.DateSubmitted, row.Tags, row.LocalPath,
	})
}

func (ca *CumulativeAppender) write(record []string) error {
	if err := ca.w.Write(record); err != nil {
		return entity.LocalIO(fmt.Errorf("write cumulative row: %w", err))
	}
	return nil
}

// Close flushes buffered rows and closes the file.
func (ca *CumulativeAppender) Close() error {
	ca.w.Flush()
	if err := ca.w.Error(); err != nil {
		ca.f.Close()
		return entity.LocalIO(fmt.Errorf("flush cumulative file: %w", err))
	}
	if err := ca.f.Close(); err != nil {
		return entity.LocalIO(fmt.Errorf("close cumulative file: %w", err))
	}
	return nil
}
