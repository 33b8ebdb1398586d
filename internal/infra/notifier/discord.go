package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"regharvest/internal/usecase/harvest"
)

// DiscordConfig contains configuration for Discord webhook notifications.
type DiscordConfig struct {
	// WebhookURL is the Discord webhook URL.
	WebhookURL string

	// Timeout is the HTTP request timeout for Discord API calls.
	Timeout time.Duration
}

// DiscordNotifier posts run summaries to a Discord channel webhook.
type DiscordNotifier struct {
	config      DiscordConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewDiscordNotifier creates a DiscordNotifier. Discord allows bursts but
// throttles sustained webhook traffic, so the limiter is 2 req/s, burst 5.
func NewDiscordNotifier(config DiscordConfig) *DiscordNotifier {
	return &DiscordNotifier{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimiter: NewRateLimiter(2.0, 5),
	}
}

// discordWebhookPayload is the JSON payload for a Discord webhook message.
type discordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Color       int                 `json:"color"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Footer      *discordEmbedFooter `json:"footer,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordEmbedFooter struct {
	Text string `json:"text"`
}

const (
	discordColorGreen = 0x2ecc71
	discordColorRed   = 0xe74c3c
)

func (d *DiscordNotifier) buildPayload(summary harvest.Summary) discordWebhookPayload {
	title := "Harvest run completed"
	color := discordColorGreen
	if !summary.FeedConsumed {
		title = "Harvest run failed"
		color = discordColorRed
	}

	return discordWebhookPayload{
		Embeds: []discordEmbed{{
			Title:       title,
			Description: summaryLines(summary),
			Color:       color,
			Fields: []discordEmbedField{
				{Name: "Downloads", Value: fmt.Sprintf("%d", summary.Downloads), Inline: true},
				{Name: "Failures", Value: fmt.Sprintf("%d", summary.DownloadFailures+summary.LookupFailures), Inline: true},
				{Name: "Merged", Value: fmt.Sprintf("%d", summary.Merged), Inline: true},
			},
			Footer: &discordEmbedFooter{
				Text: fmt.Sprintf("run %s • %s", summary.RunID, summary.Duration.Round(time.Second)),
			},
		}},
	}
}

func (d *DiscordNotifier) sendWebhookRequest(ctx context.Context, summary harvest.Summary) error {
	jsonData, err := json.Marshal(d.buildPayload(summary))
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.WebhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			Message:    "Discord rate limit exceeded",
			RetryAfter: extractRetryAfter(resp),
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Discord API client error: %s", string(body)),
		}
	case resp.StatusCode >= 500:
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Discord API server error: %s", string(body)),
		}
	default:
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}
}

// NotifyRunSummary posts the run summary to the configured webhook, with one
// retry on transient failures.
func (d *DiscordNotifier) NotifyRunSummary(ctx context.Context, summary harvest.Summary) error {
	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	if err := d.rateLimiter.Allow(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	err := d.sendWebhookRequest(ctx, summary)
	if err == nil {
		slog.Info("Discord notification successful",
			slog.String("request_id", requestID),
			slog.String("run_id", summary.RunID))
		return nil
	}

	if rateLimitErr, ok := is429Error(err); ok {
		select {
		case <-time.After(rateLimitErr.RetryAfter):
		case <-ctx.Done():
			return fmt.Errorf("context canceled during rate limit backoff: %w", ctx.Err())
		}
		return d.sendWebhookRequest(ctx, summary)
	}

	if isRetryableError(err) {
		slog.Warn("Discord webhook failed, retrying once",
			slog.String("request_id", requestID),
			slog.Any("error", err))
		return d.sendWebhookRequest(ctx, summary)
	}

	return err
}
