package entity

import (
	"errors"
	"fmt"
	"testing"
)

func TestCategoryOf(t *testing.T) {
	base := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"transient", Transient(base), CategoryTransient},
		{"terminal", Terminal(base), CategoryTerminal},
		{"local io", LocalIO(base), CategoryLocalIO},
		{"data shape", DataShape(base), CategoryDataShape},
		{"uncategorized", base, CategoryUnknown},
		{"nil", nil, CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategoryOf(tt.err); got != tt.want {
				t.Errorf("CategoryOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCategoryOf_WrappedChain(t *testing.T) {
	inner := Transient(errors.New("timeout"))
	wrapped := fmt.Errorf("lookup filer 12345: %w", inner)

	if got := CategoryOf(wrapped); got != CategoryTransient {
		t.Errorf("CategoryOf(wrapped) = %v, want %v", got, CategoryTransient)
	}
}

func TestCategorizedError_Unwrap(t *testing.T) {
	base := errors.New("disk full")
	err := LocalIO(base)

	if !errors.Is(err, base) {
		t.Error("expected errors.Is to reach the wrapped error")
	}
}

func TestCategoryString(t *testing.T) {
	if CategoryTransient.String() != "transient" {
		t.Errorf("unexpected name %q", CategoryTransient.String())
	}
	if CategoryUnknown.String() != "unknown" {
		t.Errorf("unexpected name %q", CategoryUnknown.String())
	}
}
