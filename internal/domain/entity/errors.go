package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the pipeline.
var (
	// ErrNoWorkRemaining indicates a progress file already covers every
	// source row; a resumed run has nothing left to do.
	ErrNoWorkRemaining = errors.New("no work remaining")

	// ErrResumeNotPossible indicates the progress file could not be aligned
	// to the current source sequence. Resume fails closed and the caller
	// must fall back to a full run.
	ErrResumeNotPossible = errors.New("resume not possible")
)

// Category is the closed set of failure categories assigned at the point an
// error is first raised. Classification by category replaces any inspection
// of error message text.
type Category int

const (
	// CategoryUnknown is the zero value for errors raised outside the
	// pipeline's own code paths.
	CategoryUnknown Category = iota

	// CategoryTransient covers timeouts, connection resets/refusals,
	// HTTP 429 and 5xx. Transient failures are retried.
	CategoryTransient

	// CategoryTerminal covers remote failures that retrying cannot fix,
	// including HTTP 4xx other than 429. Never retried.
	CategoryTerminal

	// CategoryLocalIO covers disk and permission failures on this host.
	CategoryLocalIO

	// CategoryDataShape covers malformed baseline or progress rows and
	// other structural input defects. Degraded gracefully, never fatal.
	CategoryDataShape
)

// String returns the category name used in logs and metrics labels.
func (c Category) String() string {
	switch c {
	case CategoryTransient:
		return "transient"
	case CategoryTerminal:
		return "terminal"
	case CategoryLocalIO:
		return "local_io"
	case CategoryDataShape:
		return "data_shape"
	default:
		return "unknown"
	}
}

// CategorizedError wraps an error with its failure category.
type CategorizedError struct {
	Category Category
	Err      error
}

// Error returns the wrapped error's message prefixed with the category.
func (e *CategorizedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Category, e.Err)
}

// Unwrap exposes the underlying error for errors.Is/As chains.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a transient failure.
func Transient(err error) error {
	return &CategorizedError{Category: CategoryTransient, Err: err}
}

// Terminal wraps err as a terminal failure.
func Terminal(err error) error {
	return &CategorizedError{Category: CategoryTerminal, Err: err}
}

// LocalIO wraps err as a local I/O failure.
func LocalIO(err error) error {
	return &CategorizedError{Category: CategoryLocalIO, Err: err}
}

// DataShape wraps err as a data-shape failure.
func DataShape(err error) error {
	return &CategorizedError{Category: CategoryDataShape, Err: err}
}

// CategoryOf returns the category attached to err, or CategoryUnknown when
// the error chain carries no CategorizedError.
func CategoryOf(err error) Category {
	var ce *CategorizedError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return CategoryUnknown
}
