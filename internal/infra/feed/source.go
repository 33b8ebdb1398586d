package feed

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"regharvest/internal/domain/entity"
	"regharvest/internal/infra/fetcher"
)

// Source retrieves the feed snapshot over HTTPS and parses it into filer
// records. It satisfies the harvest service's FilerSource.
//
// The snapshot is spooled to a temporary file and parsed from there rather
// than buffered in memory: the published feed runs to hundreds of megabytes
// of XML, and spooling keeps the fetch layer's retry semantics intact (a
// failed transfer restarts cleanly instead of resuming a half-consumed
// body).
type Source struct {
	fetch *fetcher.Client
	url   string

	// SpoolDir receives the temporary snapshot file for the duration of
	// the parse. Empty means the system temp directory.
	SpoolDir string
}

// NewSource creates a feed source for the distribution endpoint at url.
func NewSource(fetch *fetcher.Client, url string) *Source {
	return &Source{fetch: fetch, url: url}
}

// Filers downloads the current feed snapshot and returns its filer records
// in document order. The spooled snapshot is removed before returning.
func (s *Source) Filers(ctx context.Context) ([]entity.Filer, error) {
	dir := s.SpoolDir
	if dir == "" {
		dir = os.TempDir()
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, entity.LocalIO(fmt.Errorf("create spool dir: %w", err))
	}

	spool, err := os.CreateTemp(dir, "feed-snapshot-*.xml")
	if err != nil {
		return nil, entity.LocalIO(fmt.Errorf("create spool file: %w", err))
	}
	path := spool.Name()
	spool.Close()         //nolint:errcheck
	defer os.Remove(path) //nolint:errcheck

	if err := s.fetch.DownloadFile(ctx, s.url, path); err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, entity.LocalIO(fmt.Errorf("open feed snapshot: %w", err))
	}
	defer f.Close() //nolint:errcheck

	filers, err := ParseAll(f)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	slog.Info("feed snapshot parsed",
		slog.String("url", s.url),
		slog.Int("filers", len(filers)))
	return filers, nil
}
