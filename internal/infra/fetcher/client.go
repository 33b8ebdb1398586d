// Package fetcher performs the pipeline's outbound HTTP calls under one
// uniform policy: per-call timeouts, a fixed identifying header, shared rate
// limiting, retry with backoff, and a circuit breaker per remote endpoint.
//
// Failures are categorized at the point they are raised: a non-success
// status becomes a terminal or transient error carrying the status code and
// a body snippet, a socket failure is transient, and a disk failure during
// a streamed download is a local I/O failure.
package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"regharvest/internal/domain/entity"
	"regharvest/internal/resilience/circuitbreaker"
	"regharvest/internal/resilience/retry"
	"regharvest/pkg/ratelimit"
)

// Client performs HTTP(S) requests under the configured policy. It is safe
// for concurrent use.
type Client struct {
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	breaker    *circuitbreaker.CircuitBreaker
	retryCfg   retry.Config
	cfg        Config
}

// NewClient creates a fetch client. The circuit breaker may be nil for call
// sites that manage their own.
func NewClient(cfg Config, retryCfg retry.Config, breaker *circuitbreaker.CircuitBreaker) *Client {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultConfig().ChunkSize
	}
	if cfg.MaxBodySnippet <= 0 {
		cfg.MaxBodySnippet = DefaultConfig().MaxBodySnippet
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
			},
		},
		limiter:  limiterFor(cfg.OpsPerSecond),
		breaker:  breaker,
		retryCfg: retryCfg,
		cfg:      cfg,
	}
}

// limiterFor builds a sliding-window limiter for a possibly fractional
// operations-per-second rate. 0.5 ops/s becomes 1 permit per 2s window.
func limiterFor(opsPerSecond float64) *ratelimit.Limiter {
	if opsPerSecond <= 0 {
		opsPerSecond = DefaultConfig().OpsPerSecond
	}
	if opsPerSecond >= 1 {
		return ratelimit.PerSecond(int(opsPerSecond + 0.5))
	}
	window := time.Duration(float64(time.Second) / opsPerSecond)
	return ratelimit.New(1, window)
}

// Get performs a GET and returns the full response body. Throttled,
// retried, and routed through the circuit breaker.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	err := retry.WithBackoff(ctx, c.retryCfg, "fetch "+url, func() error {
		return c.execute(func() error {
			resp, err := c.do(ctx, url)
			if err != nil {
				return err
			}
			defer resp.Body.Close() //nolint:errcheck

			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return entity.Transient(fmt.Errorf("read response body: %w", err))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return body, nil
}

// DownloadFile performs a GET and streams the response body to dest in
// fixed-size chunks, creating parent directories as needed. The body is
// written to a temporary file first and renamed into place on success, so a
// partially-written file never masquerades as a completed download.
func (c *Client) DownloadFile(ctx context.Context, url, dest string) error {
	return retry.WithBackoff(ctx, c.retryCfg, "download "+url, func() error {
		return c.execute(func() error {
			resp, err := c.do(ctx, url)
			if err != nil {
				return err
			}
			defer resp.Body.Close() //nolint:errcheck

			return c.streamToFile(resp.Body, dest)
		})
	})
}

// execute routes fn through the circuit breaker when one is configured.
func (c *Client) execute(fn func() error) error {
	if c.breaker == nil {
		return fn()
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if err != nil && c.breaker.IsOpen() {
		slog.Warn("circuit breaker open, request rejected",
			slog.String("circuit", c.breaker.Name()))
	}
	return err
}

// do acquires a rate-limit permit, performs the request, and applies the
// status-code policy. Callers own the returned response body.
func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, entity.Terminal(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	for k, v := range c.cfg.ExtraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, entity.Transient(fmt.Errorf("request failed: %w", err))
	}

	if err := c.checkStatus(resp); err != nil {
		resp.Body.Close() //nolint:errcheck
		return nil, err
	}

	return resp, nil
}

// checkStatus applies the status-code policy: 2xx-3xx success, 429 and 5xx
// transient (429 carrying the server's retry-after hint), everything else
// terminal. Non-success errors include a capped body snippet for diagnosis.
func (c *Client) checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	if code >= 200 && code < 400 {
		return nil
	}

	snippet := c.readSnippet(resp.Body)
	httpErr := &retry.HTTPError{
		StatusCode: code,
		Message:    snippet,
	}

	switch {
	case code == http.StatusTooManyRequests:
		httpErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		return entity.Transient(httpErr)
	case code >= 500:
		return entity.Transient(httpErr)
	default:
		return entity.Terminal(httpErr)
	}
}

// readSnippet reads at most MaxBodySnippet bytes of the response body for
// attachment to a status error.
func (c *Client) readSnippet(body io.Reader) string {
	buf := make([]byte, c.cfg.MaxBodySnippet)
	n, _ := io.ReadFull(body, buf)
	return string(buf[:n])
}

// streamToFile copies the body to dest through a temp file in ChunkSize
// chunks. All filesystem failures are local I/O category.
func (c *Client) streamToFile(body io.Reader, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return entity.LocalIO(fmt.Errorf("create directory: %w", err))
	}

	tmp := dest + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return entity.LocalIO(fmt.Errorf("create temp file: %w", err))
	}

	buf := make([]byte, c.cfg.ChunkSize)
	if _, err := io.CopyBuffer(f, body, buf); err != nil {
		f.Close()      //nolint:errcheck
		os.Remove(tmp) //nolint:errcheck
		// A short read mid-stream is a network fault, not a disk fault.
		return entity.Transient(fmt.Errorf("stream body: %w", err))
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return entity.LocalIO(fmt.Errorf("close temp file: %w", err))
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return entity.LocalIO(fmt.Errorf("rename into place: %w", err))
	}

	return nil
}

// parseRetryAfter handles both forms of the Retry-After header: a delay in
// seconds or an HTTP date.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}

	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}

	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}

	return 0
}
