package feed

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// Watcher polls the regulator's update-notification RSS feed to decide
// whether a new feed snapshot has been published since the last run. When
// the notification feed is unreachable or empty, the watcher reports
// changed so a run is never silently skipped.
type Watcher struct {
	client    *http.Client
	userAgent string
}

// NewWatcher creates a Watcher using the given HTTP client.
func NewWatcher(client *http.Client, userAgent string) *Watcher {
	return &Watcher{client: client, userAgent: userAgent}
}

// SnapshotChanged reports whether the notification feed announces a
// snapshot published after lastSeen, along with the newest publication time
// observed. A zero lastSeen always reports changed.
func (w *Watcher) SnapshotChanged(ctx context.Context, rssURL string, lastSeen time.Time) (bool, time.Time, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = w.userAgent
	fp.Client = w.client

	parsed, err := fp.ParseURLWithContext(rssURL, ctx)
	if err != nil {
		slog.Warn("update-notification feed unreachable, assuming snapshot changed",
			slog.String("url", rssURL),
			slog.Any("error", err))
		return true, lastSeen, nil
	}

	var newest time.Time
	for _, item := range parsed.Items {
		if item.PublishedParsed != nil && item.PublishedParsed.After(newest) {
			newest = *item.PublishedParsed
		}
	}

	if newest.IsZero() {
		slog.Warn("update-notification feed carries no publication dates, assuming snapshot changed",
			slog.String("url", rssURL))
		return true, lastSeen, nil
	}

	if lastSeen.IsZero() || newest.After(lastSeen) {
		return true, newest, nil
	}

	slog.Info("feed snapshot unchanged since last run",
		slog.Time("last_seen", lastSeen),
		slog.Time("newest", newest))
	return false, newest, nil
}
