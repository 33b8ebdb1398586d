package notifier

import (
	"context"

	"regharvest/internal/usecase/harvest"
)

// NoOpNotifier is a no-operation implementation of the Notifier interface,
// used when notifications are disabled so callers never need a nil check.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new NoOpNotifier instance.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// NotifyRunSummary does nothing and returns nil immediately.
func (n *NoOpNotifier) NotifyRunSummary(_ context.Context, _ harvest.Summary) error {
	return nil
}
