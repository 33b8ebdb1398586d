package feed

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"regharvest/internal/infra/fetcher"
	"regharvest/internal/resilience/retry"
)

func testFetchClient() *fetcher.Client {
	cfg := fetcher.DefaultConfig()
	cfg.OpsPerSecond = 1000
	cfg.Timeout = 5 * time.Second
	return fetcher.NewClient(cfg, retry.Config{
		MaxAttempts:    1,
		InitialDelay:   time.Millisecond,
		MaxDelay:       time.Millisecond,
		Multiplier:     1,
		JitterFraction: 0,
	}, nil)
}

func TestSourceFilers_SpoolsSnapshotToDisk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleFeed)) //nolint:errcheck
	}))
	defer srv.Close()

	spoolDir := t.TempDir()
	src := NewSource(testFetchClient(), srv.URL)
	src.SpoolDir = spoolDir

	filers, err := src.Filers(t.Context())
	if err != nil {
		t.Fatalf("Filers() error = %v", err)
	}
	if len(filers) != 3 {
		t.Errorf("parsed %d filers, want 3", len(filers))
	}

	// The spooled snapshot is transient: nothing may remain once the parse
	// is done.
	entries, err := os.ReadDir(spoolDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("spool dir not cleaned up, found %v", entries)
	}
}

func TestSourceFilers_FetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	spoolDir := t.TempDir()
	src := NewSource(testFetchClient(), srv.URL)
	src.SpoolDir = spoolDir

	_, err := src.Filers(t.Context())
	if err == nil {
		t.Fatal("expected error for missing feed")
	}
	if !strings.Contains(err.Error(), "fetch feed") {
		t.Errorf("error = %v, want fetch feed failure", err)
	}

	entries, rerr := os.ReadDir(spoolDir)
	if rerr != nil {
		t.Fatalf("ReadDir() error = %v", rerr)
	}
	if len(entries) != 0 {
		t.Errorf("spool dir not cleaned up after failed fetch, found %v", entries)
	}
}
