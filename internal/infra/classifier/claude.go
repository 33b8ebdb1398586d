package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sony/gobreaker"

	"regharvest/internal/resilience/circuitbreaker"
	"regharvest/internal/resilience/retry"
)

// maxClassifyChars bounds the text sent to an AI API per document. Brochure
// front matter carries the classifiable signal; the tail is boilerplate.
const maxClassifyChars = 10000

// classifyPrompt asks for a bare comma-separated tag list so the response
// parses without a structured-output feature.
const classifyPrompt = "You label investment adviser disclosure brochures. " +
	"Reply with a comma-separated list of applicable tags from this set: " +
	"crypto, private-fund, wrap-fee, performance-fee, separately-managed, " +
	"financial-planning. Reply with only the list, or 'none'.\n\nDocument:\n%s"

// Claude classifies brochure text using Anthropic's Claude API, with the
// same circuit breaker and retry treatment as every remote call.
type Claude struct {
	client         anthropic.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	model          string
	timeout        time.Duration
}

// NewClaude creates a Claude classifier with the given API key.
func NewClaude(apiKey string) *Claude {
	return &Claude{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		circuitBreaker: circuitbreaker.New(circuitbreaker.AIConfig("claude-api")),
		retryConfig:    retry.LookupConfig(),
		model:          string(anthropic.ModelClaudeSonnet4_5_20250929),
		timeout:        60 * time.Second,
	}
}

// Classify returns content tags for the text.
func (c *Claude) Classify(ctx context.Context, text string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var tags []string

	retryErr := retry.WithBackoff(ctx, c.retryConfig, "claude classify", func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doClassify(ctx, text)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("claude api circuit breaker open, request rejected",
					slog.String("state", c.circuitBreaker.State().String()))
				return fmt.Errorf("claude api unavailable: circuit breaker open")
			}
			return err
		}

		tags = cbResult.([]string)
		return nil
	})
	if retryErr != nil {
		return nil, fmt.Errorf("claude classify failed: %w", retryErr)
	}

	return tags, nil
}

// doClassify performs the API call without retry or circuit breaker.
func (c *Claude) doClassify(ctx context.Context, text string) ([]string, error) {
	if len(text) > maxClassifyChars {
		text = text[:maxClassifyChars]
	}

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 128,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(fmt.Sprintf(classifyPrompt, text)),
			),
		},
	})
	if err != nil {
		return nil, err
	}

	var reply strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			reply.WriteString(block.Text)
		}
	}

	return parseTagList(reply.String()), nil
}

// parseTagList splits a model reply into normalized tags.
func parseTagList(reply string) []string {
	reply = strings.TrimSpace(reply)
	if reply == "" || strings.EqualFold(reply, "none") {
		return nil
	}

	parts := strings.FieldsFunc(reply, func(r rune) bool {
		return r == ',' || r == '\n'
	})

	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		tag := strings.ToLower(strings.TrimSpace(p))
		if tag != "" && tag != "none" {
			tags = append(tags, tag)
		}
	}
	return tags
}
