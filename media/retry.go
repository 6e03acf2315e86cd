package media

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
)

// do sends a GET with retries on transport errors, 429 and 5xx. Backoff
// doubles per attempt unless the server sends Retry-After.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	maxRetries := c.maxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	backoff := c.backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	ctx := req.Context()
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("media: request canceled: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		retryAfter, retry := shouldRetry(resp, err)
		if !retry {
			return resp, err
		}

		if err != nil {
			slog.Warn("media retry", "path", req.URL.Path, "attempt", attempt+1, "max", maxRetries, "error", err)
		} else {
			slog.Warn("media retry", "path", req.URL.Path, "attempt", attempt+1, "max", maxRetries, "status", resp.StatusCode)
			resp.Body.Close()
		}

		if attempt == maxRetries-1 {
			if err != nil {
				return nil, fmt.Errorf("media: request failed after %d attempts: %w", maxRetries, err)
			}
			return nil, fmt.Errorf("media: request failed after %d attempts: status %d", maxRetries, resp.StatusCode)
		}

		wait := backoff * time.Duration(1<<attempt)
		if retryAfter > 0 {
			wait = retryAfter
		}
		if err := sleepContext(ctx, wait); err != nil {
			return nil, err
		}
	}
}

func shouldRetry(resp *http.Response, err error) (time.Duration, bool) {
	if err != nil {
		return 0, true
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return parseRetryAfter(resp), true
	}
	return 0, false
}

func parseRetryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if s, err := strconv.Atoi(v); err == nil && s > 0 {
		return time.Duration(s) * time.Second
	}
	if when, err := http.ParseTime(v); err == nil {
		if until := time.Until(when); until > 0 {
			return until
		}
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("media: request canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
