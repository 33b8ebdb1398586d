package entity

import "strings"

// Status tokens written in the trailing column of every progress row.
const (
	// StatusOK marks a unit of work that completed durably. Download rows
	// additionally require a non-empty local path to count as complete.
	StatusOK = "OK"

	// StatusFailedPrefix marks a failed unit; the detail after the colon
	// names the failure category or message.
	StatusFailedPrefix = "FAILED:"

	// StatusSkipped marks a unit deliberately not processed.
	StatusSkipped = "SKIPPED"

	// StatusMissingField marks a source row that lacked a field required to
	// process it at all.
	StatusMissingField = "MISSING_FIELD"
)

// ProgressRow is one row of a run's output / progress file: one processed
// unit of work with its completion status and, on success, the local file
// reference. The same row shape serves the final run output and the partial
// progress file a resumed run scans.
type ProgressRow struct {
	CRD           string
	FilerName     string
	VersionID     string
	BrochureName  string
	DateSubmitted string
	Tags          string
	Status        string
	LocalPath     string
}

// FailedStatus builds a FAILED status token carrying detail.
func FailedStatus(detail string) string {
	return StatusFailedPrefix + detail
}

// Succeeded reports whether the row's status token is the success marker.
func (r *ProgressRow) Succeeded() bool {
	return r.Status == StatusOK
}

// Failed reports whether the row carries a failure marker.
func (r *ProgressRow) Failed() bool {
	return strings.HasPrefix(r.Status, StatusFailedPrefix)
}
