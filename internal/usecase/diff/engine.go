// Package diff selects, from the current feed, only the filers that need
// reprocessing: those absent from the baseline snapshot or whose version
// marker strictly advanced past it. Unchanged filers are skipped so repeated
// runs never re-fetch or re-classify data the cumulative dataset already
// covers.
package diff

import (
	"log/slog"
	"time"

	"regharvest/internal/domain/entity"
)

// Baseline is the diff engine's view of the prior cumulative snapshot: the
// last-seen version marker per filer CRD.
type Baseline interface {
	Marker(crd string) (string, bool)
}

// Result carries the filtered filer list and the aggregate classification
// counts reported at run end.
type Result struct {
	New       int
	Updated   int
	Unchanged int

	// ToProcess holds the New and Updated filers, in feed order.
	ToProcess []entity.Filer
}

// Total returns the number of filers examined.
func (r *Result) Total() int {
	return r.New + r.Updated + r.Unchanged
}

// Classify compares one filer against the baseline. Absent from baseline is
// New. Present with a marker strictly after the baseline's is Updated. When
// either marker fails to parse, the filer is classified Updated: a parse bug
// must never silently skip a real change.
func Classify(baseline Baseline, filer *entity.Filer) entity.ChangeKind {
	baselineMarker, known := baseline.Marker(filer.CRD)
	if !known {
		return entity.ChangeNew
	}

	current, err := filer.ParseVersionMarker()
	if err != nil {
		slog.Warn("unparseable feed version marker, reprocessing filer",
			slog.String("crd", filer.CRD),
			slog.String("marker", filer.VersionMarker))
		return entity.ChangeUpdated
	}
	previous, err := time.Parse(entity.VersionMarkerLayout, baselineMarker)
	if err != nil {
		slog.Warn("unparseable baseline version marker, reprocessing filer",
			slog.String("crd", filer.CRD),
			slog.String("marker", baselineMarker))
		return entity.ChangeUpdated
	}

	if current.After(previous) {
		return entity.ChangeUpdated
	}
	return entity.ChangeUnchanged
}

// Select classifies every filer against the baseline and returns the filers
// needing reprocessing together with the aggregate counts.
func Select(baseline Baseline, filers []entity.Filer) *Result {
	result := &Result{}
	for i := range filers {
		switch Classify(baseline, &filers[i]) {
		case entity.ChangeNew:
			result.New++
			result.ToProcess = append(result.ToProcess, filers[i])
		case entity.ChangeUpdated:
			result.Updated++
			result.ToProcess = append(result.ToProcess, filers[i])
		default:
			result.Unchanged++
		}
	}

	slog.Info("diff against baseline complete",
		slog.Int("total", result.Total()),
		slog.Int("new", result.New),
		slog.Int("updated", result.Updated),
		slog.Int("unchanged", result.Unchanged),
		slog.Int("to_process", len(result.ToProcess)))
	return result
}
