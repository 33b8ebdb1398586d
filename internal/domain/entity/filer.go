// Package entity defines the core domain entities for the harvesting pipeline.
// It contains the fundamental business objects such as Filer and Brochure, the
// progress-row model shared by run output and resume logic, and the error
// taxonomy used to classify failures across the pipeline.
package entity

import "time"

// VersionMarkerLayout is the fixed calendar-date format of the version marker
// carried by the feed and by the baseline snapshot. Day granularity; compared
// by calendar order, never lexically.
const VersionMarkerLayout = "01/02/2006"

// Filer represents one filer's data extracted from the regulatory feed for a
// single run. Filers are transient: they are rebuilt from the feed every run
// and identified across runs by their stable CRD number.
type Filer struct {
	// CRD is the filer's stable natural identifier.
	CRD string

	// LegalName is the registered name as reported in the feed.
	LegalName string

	// VersionMarker is the filing date string in VersionMarkerLayout format.
	// It is the monotonic change marker compared against the baseline.
	VersionMarker string

	// State and Country of the main office, as reported.
	State   string
	Country string
}

// ParseVersionMarker parses the filer's version marker as a calendar date.
// Returns the zero time and an error when the marker is empty or malformed;
// callers decide whether to fail open (diff engine) or skip (reporting).
func (f *Filer) ParseVersionMarker() (time.Time, error) {
	return time.Parse(VersionMarkerLayout, f.VersionMarker)
}

// ChangeKind classifies a filer relative to the baseline snapshot.
type ChangeKind int

const (
	// ChangeUnchanged means the baseline already covers this filer at the
	// same version marker; the filer is skipped.
	ChangeUnchanged ChangeKind = iota

	// ChangeNew means the filer is absent from the baseline.
	ChangeNew

	// ChangeUpdated means the filer's version marker strictly advanced past
	// the baseline's, or one of the markers could not be parsed (fail-open).
	ChangeUpdated
)

// String returns the human-readable name of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeNew:
		return "new"
	case ChangeUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}
