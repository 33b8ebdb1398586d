package fetcher

import (
	"fmt"
	"strconv"
	"time"

	layered "regharvest/internal/pkg/config"
	pkgconfig "regharvest/pkg/config"
)

// Config holds the uniform request policy applied to every outbound call
// made through a Client.
type Config struct {
	// Timeout bounds a single request, connect plus read. It never spans
	// the whole run; one slow call fails only that call.
	Timeout time.Duration

	// UserAgent is the fixed identifying header sent with every request.
	UserAgent string

	// ExtraHeaders are added to every request after User-Agent.
	ExtraHeaders map[string]string

	// OpsPerSecond throttles requests through the shared rate limiter.
	// Lookup and download clients are configured independently.
	OpsPerSecond float64

	// ChunkSize is the copy buffer size for streamed downloads. Bounds
	// memory regardless of document size.
	ChunkSize int

	// MaxBodySnippet caps the response-body excerpt attached to
	// non-success status errors.
	MaxBodySnippet int
}

// DefaultConfig returns the production request policy.
func DefaultConfig() Config {
	return Config{
		Timeout:        30 * time.Second,
		UserAgent:      "regharvest/1.0 (research pipeline)",
		OpsPerSecond:   2.0,
		ChunkSize:      64 * 1024,
		MaxBodySnippet: 512,
	}
}

// LoadConfig reads the fetch policy through the layered source (environment
// over properties file over the compiled defaults). The prefix distinguishes
// the lookup client ("LOOKUP") from the download client ("DOWNLOAD") so
// their rates can be tuned independently. Unlike the worker knobs, a
// malformed fetch policy is an error, not a fallback: a mistyped rate limit
// must stop the process before it can hammer a regulator's endpoint.
func LoadConfig(source *layered.Source, prefix string) (Config, error) {
	cfg := DefaultConfig()

	if raw := source.String(prefix+"_TIMEOUT", ""); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return cfg, fmt.Errorf("%s_TIMEOUT: %w", prefix, err)
		}
		cfg.Timeout = timeout
	}
	if err := pkgconfig.ValidatePositiveDuration(cfg.Timeout); err != nil {
		return cfg, fmt.Errorf("%s_TIMEOUT: %w", prefix, err)
	}

	cfg.UserAgent = source.String(prefix+"_USER_AGENT", cfg.UserAgent)

	if raw := source.String(prefix+"_OPS_PER_SECOND", ""); raw != "" {
		ops, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return cfg, fmt.Errorf("%s_OPS_PER_SECOND: %w", prefix, err)
		}
		cfg.OpsPerSecond = ops
	}
	if cfg.OpsPerSecond <= 0 {
		return cfg, fmt.Errorf("%s_OPS_PER_SECOND must be positive, got %v", prefix, cfg.OpsPerSecond)
	}

	if raw := source.String(prefix+"_CHUNK_SIZE", ""); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return cfg, fmt.Errorf("%s_CHUNK_SIZE: %w", prefix, err)
		}
		cfg.ChunkSize = size
	}
	if cfg.ChunkSize <= 0 {
		return cfg, fmt.Errorf("%s_CHUNK_SIZE must be positive, got %d", prefix, cfg.ChunkSize)
	}

	return cfg, nil
}
