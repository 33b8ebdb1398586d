package entity

import (
	"testing"
	"time"
)

func TestFiler_ParseVersionMarker(t *testing.T) {
	f := &Filer{CRD: "12345", VersionMarker: "01/15/2024"}

	got, err := f.ParseVersionMarker()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("parsed %v, want %v", got, want)
	}
}

func TestFiler_ParseVersionMarker_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		marker string
	}{
		{"empty", ""},
		{"iso format", "2024-01-15"},
		{"garbage", "not-a-date"},
		{"day first", "15/01/2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Filer{VersionMarker: tt.marker}
			if _, err := f.ParseVersionMarker(); err == nil {
				t.Errorf("expected parse error for %q", tt.marker)
			}
		})
	}
}

func TestProgressRow_Status(t *testing.T) {
	ok := &ProgressRow{Status: StatusOK}
	if !ok.Succeeded() || ok.Failed() {
		t.Error("OK row misclassified")
	}

	failed := &ProgressRow{Status: FailedStatus("transient")}
	if failed.Succeeded() || !failed.Failed() {
		t.Error("FAILED row misclassified")
	}

	skipped := &ProgressRow{Status: StatusSkipped}
	if skipped.Succeeded() || skipped.Failed() {
		t.Error("SKIPPED row misclassified")
	}
}
