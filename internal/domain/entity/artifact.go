package entity

// Brochure is a downloadable disclosure document owned by a filer. It is
// identified by the compound key (filer CRD, brochure version id); the version
// id alone is the natural key used for deduplication during merge.
type Brochure struct {
	// CRD is the owning filer's identifier.
	CRD string

	// VersionID is the unique brochure version identifier. It parameterizes
	// the document download URL and deduplicates rows in the cumulative
	// dataset.
	VersionID string

	// Name is the brochure's display name as returned by the lookup API.
	Name string

	// DateSubmitted is the submission date string in VersionMarkerLayout
	// format.
	DateSubmitted string

	// LocalPath is the path the document was downloaded to. Empty until a
	// download succeeds.
	LocalPath string
}

// Key returns the natural key used for merge deduplication. Empty when the
// brochure has no version id; such rows are appended unconditionally and
// logged as non-deduplicable.
func (b *Brochure) Key() string {
	return b.VersionID
}
