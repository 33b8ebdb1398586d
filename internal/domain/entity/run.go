package entity

import "time"

// RunRecord is one run's outcome as persisted to the optional run ledger.
// The ledger gives cross-run observability: how each scheduled run fared,
// what failed and in which category, without grepping logs.
type RunRecord struct {
	RunID        string
	StartedAt    time.Time
	Duration     time.Duration
	FeedConsumed bool

	FilersTotal   int64
	FilersNew     int64
	FilersUpdated int64
	FilersSkipped int64

	Lookups          int64
	LookupFailures   int64
	Brochures        int64
	Downloads        int64
	DownloadFailures int64
	Tagged           int64
	Merged           int64
	Duplicates       int64

	// FailuresByCategory maps error category name to unit failure count.
	FailuresByCategory map[string]int64
}
