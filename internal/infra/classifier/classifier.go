// Package classifier assigns content tags to downloaded brochure text. The
// Classifier interface is the pipeline's pluggable analysis boundary: the
// reference implementation is a keyword matcher, with optional AI-backed
// implementations for Claude and OpenAI behind the same interface.
package classifier

import (
	"context"
	"log/slog"
	"os"

	pkgconfig "regharvest/pkg/config"
)

// Classifier consumes extracted document text and returns content tags.
type Classifier interface {
	Classify(ctx context.Context, text string) ([]string, error)
}

// FromEnv builds the classifier selected by CLASSIFIER_TYPE. Supported
// values: "keyword" (default), "claude", "openai", "noop". Missing API keys
// degrade to the keyword classifier rather than failing startup; a run with
// weaker tags beats no run.
func FromEnv() Classifier {
	kind := pkgconfig.GetEnvString("CLASSIFIER_TYPE", "keyword")

	switch kind {
	case "claude":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			slog.Warn("ANTHROPIC_API_KEY not set, falling back to keyword classifier")
			return NewKeyword(DefaultRules())
		}
		return NewClaude(apiKey)
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			slog.Warn("OPENAI_API_KEY not set, falling back to keyword classifier")
			return NewKeyword(DefaultRules())
		}
		return NewOpenAI(apiKey)
	case "noop":
		return NewNoOp()
	case "keyword":
		return NewKeyword(DefaultRules())
	default:
		slog.Warn("unknown CLASSIFIER_TYPE, using keyword classifier",
			slog.String("type", kind))
		return NewKeyword(DefaultRules())
	}
}
