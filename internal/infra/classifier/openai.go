package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"regharvest/internal/resilience/circuitbreaker"
	"regharvest/internal/resilience/retry"
)

// OpenAI classifies brochure text using the OpenAI chat API.
type OpenAI struct {
	client         *openai.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	model          string
	timeout        time.Duration
}

// NewOpenAI creates an OpenAI classifier with the given API key.
func NewOpenAI(apiKey string) *OpenAI {
	return &OpenAI{
		client:         openai.NewClient(apiKey),
		circuitBreaker: circuitbreaker.New(circuitbreaker.AIConfig("openai-api")),
		retryConfig:    retry.LookupConfig(),
		model:          openai.GPT4oMini,
		timeout:        60 * time.Second,
	}
}

// Classify returns content tags for the text.
func (o *OpenAI) Classify(ctx context.Context, text string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var tags []string

	retryErr := retry.WithBackoff(ctx, o.retryConfig, "openai classify", func() error {
		cbResult, err := o.circuitBreaker.Execute(func() (interface{}, error) {
			return o.doClassify(ctx, text)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("openai api circuit breaker open, request rejected",
					slog.String("state", o.circuitBreaker.State().String()))
				return fmt.Errorf("openai api unavailable: circuit breaker open")
			}
			return err
		}

		tags = cbResult.([]string)
		return nil
	})
	if retryErr != nil {
		return nil, fmt.Errorf("openai classify failed: %w", retryErr)
	}

	return tags, nil
}

// doClassify performs the API call without retry or circuit breaker.
func (o *OpenAI) doClassify(ctx context.Context, text string) ([]string, error) {
	if len(text) > maxClassifyChars {
		text = text[:maxClassifyChars]
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.model,
		MaxTokens: 128,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(classifyPrompt, text),
			},
		},
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	return parseTagList(resp.Choices[0].Message.Content), nil
}
