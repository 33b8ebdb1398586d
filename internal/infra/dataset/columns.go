// Package dataset reads and writes the pipeline's delimited file set: the
// baseline snapshot consumed by the diff engine, the per-run progress file
// scanned by the resume locator, and the append-only cumulative dataset the
// merge stage folds runs into. All three share one row shape; the progress
// file adds a trailing completion-status column.
package dataset

import "strings"

// Canonical cumulative/baseline column names, in file order.
const (
	ColCRD           = "crd"
	ColFilerName     = "filer_name"
	ColVersionID     = "brochure_version_id"
	ColBrochureName  = "brochure_name"
	ColDateSubmitted = "date_submitted"
	ColTags          = "tags"
	ColLocalPath     = "local_path"
	ColStatus        = "status"
)

// CumulativeHeader is the header row of the baseline and cumulative files.
var CumulativeHeader = []string{
	ColCRD, ColFilerName, ColVersionID, ColBrochureName,
	ColDateSubmitted, ColTags, ColLocalPath,
}

// ProgressHeader is the header row of a run's progress file: the cumulative
// columns plus the trailing status token.
var ProgressHeader = append(append([]string{}, CumulativeHeader...), ColStatus)

// Accepted header aliases. Baselines produced by earlier tool versions or by
// hand-maintained exports name the id and date columns differently; the diff
// engine accepts any alias rather than forcing a reformat.
var (
	idAliases   = []string{ColCRD, "crd_number", "filer_id", "entity_id"}
	dateAliases = []string{ColDateSubmitted, "last_updated", "submission_date"}
	keyAliases  = []string{ColVersionID, "version_id"}
)

// headerIndex locates the columns the readers care about within an arbitrary
// header row. A missing optional column is -1.
type headerIndex struct {
	id   int
	date int
	key  int
}

// resolveHeader matches a header row against the accepted aliases.
// Matching is case-insensitive and ignores surrounding whitespace.
func resolveHeader(header []string) headerIndex {
	idx := headerIndex{id: -1, date: -1, key: -1}
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		switch {
		case idx.id == -1 && matchesAlias(name, idAliases):
			idx.id = i
		case idx.date == -1 && matchesAlias(name, dateAliases):
			idx.date = i
		case idx.key == -1 && matchesAlias(name, keyAliases):
			idx.key = i
		}
	}
	return idx
}

func matchesAlias(name string, aliases []string) bool {
	for _, a := range aliases {
		if name == a {
			return true
		}
	}
	return false
}

// field returns record[i], or "" when the record is too short. Trailing
// fields of an interrupted row may simply be absent.
func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}
