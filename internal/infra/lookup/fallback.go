package lookup

import (
	"context"
	"log/slog"

	"regharvest/internal/domain/entity"
)

// Discoverer is the scraper-side brochure discovery used when the lookup
// API returns no brochures for a filer.
type Discoverer interface {
	Discover(ctx context.Context, crd string) ([]entity.Brochure, error)
}

// WithFallback wraps a lookup client with scrape-based discovery. Older
// filings predate the lookup API and only appear on the filer's public
// disclosure page, so an empty API response triggers one scrape attempt
// before the filer is accepted as brochure-less.
type WithFallback struct {
	primary  *Client
	fallback Discoverer
}

// NewWithFallback creates the fallback-wrapped lookup. fallback may be nil
// to disable scraping.
func NewWithFallback(primary *Client, fallback Discoverer) *WithFallback {
	return &WithFallback{primary: primary, fallback: fallback}
}

// Brochures resolves the filer's brochures through the API, falling back to
// the disclosure page scrape when the API reports none. A scrape failure
// degrades to the API's empty answer: the API is authoritative, the scrape
// is best effort.
func (l *WithFallback) Brochures(ctx context.Context, crd string) ([]entity.Brochure, error) {
	brochures, err := l.primary.Brochures(ctx, crd)
	if err != nil {
		return nil, err
	}
	if len(brochures) > 0 || l.fallback == nil {
		return brochures, nil
	}

	scraped, err := l.fallback.Discover(ctx, crd)
	if err != nil {
		slog.Warn("disclosure page scrape failed, accepting empty lookup result",
			slog.String("crd", crd),
			slog.String("error", err.Error()))
		return brochures, nil
	}
	if len(scraped) > 0 {
		slog.Info("brochures discovered via disclosure page scrape",
			slog.String("crd", crd),
			slog.Int("brochures", len(scraped)))
	}
	return scraped, nil
}
