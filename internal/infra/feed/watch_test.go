package feed

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func rssWithPubDate(pub time.Time) string {
	return fmt.Sprintf(`<?xml version="1.0"?>
<rss version="2.0"><channel>
  <title>Feed Updates</title>
  <item><title>Snapshot published</title><pubDate>%s</pubDate></item>
</channel></rss>`, pub.UTC().Format(time.RFC1123Z))
}

func TestSnapshotChanged_NewerPublication(t *testing.T) {
	pub := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssWithPubDate(pub)) //nolint:errcheck
	}))
	defer srv.Close()

	w := NewWatcher(srv.Client(), "regharvest-test")

	changed, newest, err := w.SnapshotChanged(t.Context(), srv.URL, pub.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed {
		t.Error("expected changed for a newer publication")
	}
	if !newest.Equal(pub) {
		t.Errorf("newest = %v, want %v", newest, pub)
	}
}

func TestSnapshotChanged_Unchanged(t *testing.T) {
	pub := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssWithPubDate(pub)) //nolint:errcheck
	}))
	defer srv.Close()

	w := NewWatcher(srv.Client(), "regharvest-test")

	changed, _, err := w.SnapshotChanged(t.Context(), srv.URL, pub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed {
		t.Error("expected unchanged when lastSeen equals the newest publication")
	}
}

func TestSnapshotChanged_UnreachableFailsOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	w := NewWatcher(srv.Client(), "regharvest-test")

	changed, _, err := w.SnapshotChanged(t.Context(), srv.URL, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed {
		t.Error("unreachable notification feed must not skip the run")
	}
}

func TestSnapshotChanged_ZeroLastSeen(t *testing.T) {
	pub := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssWithPubDate(pub)) //nolint:errcheck
	}))
	defer srv.Close()

	w := NewWatcher(srv.Client(), "regharvest-test")

	changed, _, err := w.SnapshotChanged(t.Context(), srv.URL, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed {
		t.Error("zero lastSeen must always report changed")
	}
}
