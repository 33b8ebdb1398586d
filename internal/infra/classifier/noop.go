package classifier

import "context"

// NoOp is a classifier that assigns no tags. Useful when the pipeline runs
// purely for document accumulation.
type NoOp struct{}

// NewNoOp creates a NoOp classifier.
func NewNoOp() *NoOp {
	return &NoOp{}
}

// Classify returns no tags and never fails.
func (NoOp) Classify(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}
