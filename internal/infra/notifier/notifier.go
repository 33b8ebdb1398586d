// Package notifier delivers end-of-run summaries to a chat webhook. It
// defines the Notifier interface which allows different notification
// mechanisms (Slack, Discord) to be used interchangeably, plus a no-op
// notifier for when notifications are disabled.
package notifier

import (
	"context"
	"log/slog"
	"os"
	"time"

	"regharvest/internal/usecase/harvest"
	pkgconfig "regharvest/pkg/config"
)

// Notifier sends the end-of-run summary. Implementations handle rate
// limiting, retries, and error logging internally.
type Notifier interface {
	NotifyRunSummary(ctx context.Context, summary harvest.Summary) error
}

// FromEnv builds the notifier selected by NOTIFIER_TYPE: "slack", "discord",
// or "noop" (default). A selected channel whose webhook URL is unset degrades
// to the no-op notifier with a warning; a missing notification never blocks
// a run.
func FromEnv() Notifier {
	kind := pkgconfig.GetEnvString("NOTIFIER_TYPE", "noop")
	timeout := pkgconfig.GetEnvDuration("NOTIFIER_TIMEOUT", 10*time.Second)

	switch kind {
	case "slack":
		url := os.Getenv("SLACK_WEBHOOK_URL")
		if url == "" {
			slog.Warn("SLACK_WEBHOOK_URL not set, notifications disabled")
			return NewNoOpNotifier()
		}
		return NewSlackNotifier(SlackConfig{WebhookURL: url, Timeout: timeout})
	case "discord":
		url := os.Getenv("DISCORD_WEBHOOK_URL")
		if url == "" {
			slog.Warn("DISCORD_WEBHOOK_URL not set, notifications disabled")
			return NewNoOpNotifier()
		}
		return NewDiscordNotifier(DiscordConfig{WebhookURL: url, Timeout: timeout})
	case "noop":
		return NewNoOpNotifier()
	default:
		slog.Warn("unknown NOTIFIER_TYPE, notifications disabled",
			slog.String("type", kind))
		return NewNoOpNotifier()
	}
}
