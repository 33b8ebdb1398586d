package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"regharvest/internal/usecase/harvest"
)

// SlackConfig contains configuration for Slack webhook notifications.
type SlackConfig struct {
	// WebhookURL is the Slack Incoming Webhook URL (includes authentication token).
	WebhookURL string

	// Timeout is the HTTP request timeout for Slack API calls.
	Timeout time.Duration
}

// SlackNotifier posts run summaries to Slack via Incoming Webhook.
type SlackNotifier struct {
	config      SlackConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewSlackNotifier creates a SlackNotifier. The rate limiter is set to
// 1 request/second with burst of 1, matching the Slack webhook limit.
func NewSlackNotifier(config SlackConfig) *SlackNotifier {
	return &SlackNotifier{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimiter: NewRateLimiter(1.0, 1),
	}
}

// SlackWebhookPayload is the JSON payload sent to the Slack webhook using
// Block Kit.
type SlackWebhookPayload struct {
	Text   string       `json:"text"`
	Blocks []SlackBlock `json:"blocks"`
}

// SlackBlock represents a Slack Block Kit block.
type SlackBlock struct {
	Type     string            `json:"type"`
	Text     *SlackTextObject  `json:"text,omitempty"`
	Elements []SlackTextObject `json:"elements,omitempty"`
}

// SlackTextObject represents a text object in Slack Block Kit.
type SlackTextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const maxSectionTextLength = 3000

// summaryLines renders the run counters as one line per stat.
func summaryLines(summary harvest.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Filers: %d total, %d new, %d updated, %d unchanged\n",
		summary.FilersTotal, summary.FilersNew, summary.FilersUpdated, summary.FilersSkipped)
	fmt.Fprintf(&b, "Lookups: %d ok, %d failed\n", summary.Lookups, summary.LookupFailures)
	fmt.Fprintf(&b, "Downloads: %d ok, %d failed (%d tagged)\n",
		summary.Downloads, summary.DownloadFailures, summary.Tagged)
	fmt.Fprintf(&b, "Merged: %d new rows, %d duplicates skipped", summary.Merged, summary.Duplicates)

	if len(summary.FailuresByCategory) > 0 {
		categories := make([]string, 0, len(summary.FailuresByCategory))
		for category := range summary.FailuresByCategory {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		b.WriteString("\nFailures:")
		for _, category := range categories {
			fmt.Fprintf(&b, " %s=%d", category, summary.FailuresByCategory[category])
		}
	}
	return b.String()
}

// buildBlockKitPayload creates the Slack webhook payload for a run summary:
// a header-style section with the outcome, the counters, and a context block
// with the run id and duration.
func (s *SlackNotifier) buildBlockKitPayload(summary harvest.Summary) SlackWebhookPayload {
	outcome := "completed"
	if !summary.FeedConsumed {
		outcome = "failed (feed not consumed)"
	}
	fallbackText := fmt.Sprintf("Harvest run %s: %d downloads, %d merged",
		outcome, summary.Downloads, summary.Merged)

	sectionText := fmt.Sprintf("*Harvest run %s*\n\n%s", outcome, summaryLines(summary))
	if len(sectionText) > maxSectionTextLength {
		sectionText = sectionText[:maxSectionTextLength-3] + "..."
	}

	contextText := fmt.Sprintf("run %s • %s • %s",
		summary.RunID,
		summary.StartedAt.Format(time.RFC3339),
		summary.Duration.Round(time.Second))

	return SlackWebhookPayload{
		Text: fallbackText,
		Blocks: []SlackBlock{
			{
				Type: "section",
				Text: &SlackTextObject{Type: "mrkdwn", Text: sectionText},
			},
			{
				Type: "context",
				Elements: []SlackTextObject{
					{Type: "mrkdwn", Text: contextText},
				},
			},
		},
	}
}

// sendWebhookRequest performs one webhook POST, mapping the response status
// to the shared webhook error types: 429 → RateLimitError, other 4xx →
// ClientError, 5xx → ServerError.
func (s *SlackNotifier) sendWebhookRequest(ctx context.Context, summary harvest.Summary) error {
	jsonData, err := json.Marshal(s.buildBlockKitPayload(summary))
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.WebhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{
			Message:    "Slack rate limit exceeded",
			RetryAfter: extractRetryAfter(resp),
		}
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Slack API client error: %s", string(body)),
		}
	}

	if resp.StatusCode >= 500 {
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Slack API server error: %s", string(body)),
		}
	}

	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
}

// extractRetryAfter reads the Retry-After header in seconds, defaulting to
// 5s when absent or unparseable.
func extractRetryAfter(resp *http.Response) time.Duration {
	const fallback = 5 * time.Second
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// sendWebhookRequestWithRetry retries transient webhook failures: up to 2
// attempts, 5s base delay, 429 honoring the service's retry_after, 4xx
// failing immediately.
func (s *SlackNotifier) sendWebhookRequestWithRetry(ctx context.Context, summary harvest.Summary) error {
	const (
		maxAttempts = 2
		baseDelay   = 5 * time.Second
	)

	requestID, _ := ctx.Value(requestIDKey).(string)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := s.sendWebhookRequest(ctx, summary)
		if err == nil {
			slog.Info("Slack notification successful",
				slog.String("request_id", requestID),
				slog.String("run_id", summary.RunID),
				slog.Int("attempt", attempt))
			return nil
		}

		lastErr = err

		if rateLimitErr, ok := is429Error(err); ok {
			slog.Warn("Slack rate limit hit, backing off",
				slog.String("request_id", requestID),
				slog.Duration("retry_after", rateLimitErr.RetryAfter),
				slog.Int("attempt", attempt))
			select {
			case <-time.After(rateLimitErr.RetryAfter):
				continue
			case <-ctx.Done():
				return fmt.Errorf("context canceled during rate limit backoff: %w", ctx.Err())
			}
		}

		if !isRetryableError(err) {
			slog.Error("Slack notification failed with non-retryable error",
				slog.String("request_id", requestID),
				slog.String("run_id", summary.RunID),
				slog.Any("error", err))
			return err
		}

		if attempt < maxAttempts {
			delay := baseDelay * time.Duration(attempt)
			slog.Warn("Slack API request failed, retrying",
				slog.String("request_id", requestID),
				slog.Any("error", err),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay))
			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return fmt.Errorf("context canceled during retry backoff: %w", ctx.Err())
			}
		}
	}

	slog.Error("Slack notification failed after all retries",
		slog.String("request_id", requestID),
		slog.String("run_id", summary.RunID),
		slog.Any("error", lastErr),
		slog.Int("max_attempts", maxAttempts))
	return fmt.Errorf("slack notification failed after %d attempts: %w", maxAttempts, lastErr)
}

// NotifyRunSummary posts the run summary to the configured webhook.
func (s *SlackNotifier) NotifyRunSummary(ctx context.Context, summary harvest.Summary) error {
	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	if err := s.rateLimiter.Allow(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	return s.sendWebhookRequestWithRetry(ctx, summary)
}
