package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultUserAgent   = "docuquery/1.0 (+https://github.com/docuquery/docuquery)"
	maxResponseBytes   = 2 << 20 // 2 MiB per search response
	defaultHTTPTimeout = 15 * time.Second
)

// client wraps an http.Client with a shared outbound rate limit so a burst
// of tool calls inside one answer loop cannot hammer search endpoints.
type client struct {
	http    *http.Client
	limiter *rate.Limiter
}

func newClient(timeout time.Duration) *client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &client{
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 2),
	}
}

// get fetches url and returns at most maxResponseBytes of the body.
func (c *client) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", url, err)
	}
	return body, nil
}
