package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"regharvest/internal/domain/entity"
)

// Baseline is the in-memory view of the most recent cumulative dataset that a
// run diffs and dedups against. It is read once at run start and immutable
// for the run's duration.
type Baseline struct {
	// markers maps filer CRD to the last-seen version marker string.
	markers map[string]string

	// keys is the full set of brochure version ids already recorded.
	keys map[string]struct{}
}

// EmptyBaseline returns a baseline with no known filers or keys, forcing
// full reprocessing.
func EmptyBaseline() *Baseline {
	return &Baseline{
		markers: map[string]string{},
		keys:    map[string]struct{}{},
	}
}

// Marker returns the last-seen version marker for a filer CRD.
func (b *Baseline) Marker(crd string) (string, bool) {
	m, ok := b.markers[crd]
	return m, ok
}

// HasKey reports whether a brochure version id is already recorded.
func (b *Baseline) HasKey(versionID string) bool {
	_, ok := b.keys[versionID]
	return ok
}

// Filers returns the number of distinct filer CRDs in the baseline.
func (b *Baseline) Filers() int {
	return len(b.markers)
}

// Keys returns the number of distinct brochure version ids in the baseline.
func (b *Baseline) Keys() int {
	return len(b.keys)
}

// ReadBaseline loads the cumulative snapshot at path. A missing file yields
// an empty baseline (first run). A file whose header lacks the required
// filer-id or date column also yields an empty baseline, with a loud warning:
// full reprocessing is recoverable, silently misclassifying changes is not.
func ReadBaseline(path string) (*Baseline, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("no baseline snapshot, full run", slog.String("path", path))
			return EmptyBaseline(), nil
		}
		return nil, entity.LocalIO(fmt.Errorf("open baseline %s: %w", path, err))
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		slog.Warn("baseline snapshot unreadable, treating as empty",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return EmptyBaseline(), nil
	}

	idx := resolveHeader(header)
	if idx.id < 0 || idx.date < 0 {
		slog.Warn("baseline snapshot missing required columns, treating as empty",
			slog.String("path", path),
			slog.Any("header", header),
			slog.Bool("has_id_column", idx.id >= 0),
			slog.Bool("has_date_column", idx.date >= 0))
		return EmptyBaseline(), nil
	}

	b := EmptyBaseline()
	line := 1
	skipped := 0
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			skipped++
			slog.Warn("skipping malformed baseline row",
				slog.String("path", path),
				slog.Int("line", line),
				slog.String("error", err.Error()))
			continue
		}

		crd := field(record, idx.id)
		if crd == "" {
			skipped++
			continue
		}
		b.recordMarker(crd, field(record, idx.date))
		if key := field(record, idx.key); key != "" {
			b.keys[key] = struct{}{}
		}
	}

	slog.Info("baseline snapshot loaded",
		slog.String("path", path),
		slog.Int("filers", b.Filers()),
		slog.Int("brochure_keys", b.Keys()),
		slog.Int("skipped_rows", skipped))
	return b, nil
}

// recordMarker keeps the most recent marker per filer. The cumulative file is
// append-only, so a filer reprocessed across runs appears multiple times; the
// calendar-latest marker wins, with file order breaking unparseable ties.
func (b *Baseline) recordMarker(crd, marker string) {
	prev, ok := b.markers[crd]
	if !ok {
		b.markers[crd] = marker
		return
	}
	prevDate, prevErr := time.Parse(entity.VersionMarkerLayout, prev)
	curDate, curErr := time.Parse(entity.VersionMarkerLayout, marker)
	if prevErr != nil || curErr != nil || curDate.After(prevDate) {
		b.markers[crd] = marker
	}
}
