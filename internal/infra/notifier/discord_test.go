package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newDiscord(url string) *DiscordNotifier {
	return NewDiscordNotifier(DiscordConfig{WebhookURL: url, Timeout: 5 * time.Second})
}

func TestDiscordNotifier_Success(t *testing.T) {
	var payload discordWebhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("payload not JSON: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	if err := newDiscord(server.URL).NotifyRunSummary(context.Background(), testSummary()); err != nil {
		t.Fatalf("NotifyRunSummary() error = %v", err)
	}

	if len(payload.Embeds) != 1 {
		t.Fatalf("embeds = %d, want 1", len(payload.Embeds))
	}
	embed := payload.Embeds[0]
	if embed.Title != "Harvest run completed" {
		t.Errorf("embed title = %q", embed.Title)
	}
	if embed.Color != discordColorGreen {
		t.Errorf("embed color = %#x, want green", embed.Color)
	}
}

func TestDiscordNotifier_FailedRunIsRed(t *testing.T) {
	var payload discordWebhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	summary := testSummary()
	summary.FeedConsumed = false
	if err := newDiscord(server.URL).NotifyRunSummary(context.Background(), summary); err != nil {
		t.Fatalf("NotifyRunSummary() error = %v", err)
	}
	if payload.Embeds[0].Color != discordColorRed {
		t.Errorf("embed color = %#x, want red", payload.Embeds[0].Color)
	}
}

func TestDiscordNotifier_ServerErrorRetriedOnce(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	if err := newDiscord(server.URL).NotifyRunSummary(context.Background(), testSummary()); err != nil {
		t.Fatalf("NotifyRunSummary() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("webhook called %d times, want 2", calls)
	}
}
