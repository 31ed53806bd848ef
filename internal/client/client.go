// Package client talks to the validation backend: combined progress polls,
// per-file summaries and outcome lists, with bounded retry and backoff.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"valfront/internal/report"
	"valfront/internal/track"
)

// Client is an HTTP client for the validation backend
type Client struct {
	client       *http.Client
	baseURL      string
	maxRetries   int
	backoffMs    int
	backoffMaxMs int
	timings      *Timings // optional, nil disables metrics
}

// New creates a backend client.
// If timings is nil, metrics collection is disabled.
func New(baseURL string, timeoutSeconds, maxRetries, backoffMs, backoffMaxMs int, timings *Timings) *Client {
	return &Client{
		client: &http.Client{
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
		baseURL:      strings.TrimRight(baseURL, "/"),
		maxRetries:   maxRetries,
		backoffMs:    backoffMs,
		backoffMaxMs: backoffMaxMs,
		timings:      timings,
	}
}

// Progress issues one combined poll for the whole batch. The response
// arrays match the token order. Progress is never retried here: a failed
// poll is simply retried on the tracker's next tick, which keeps the
// at-most-one-outstanding-request invariant intact.
func (c *Client) Progress(ctx context.Context, tokens []string) (*track.ProgressResult, error) {
	endpoint := c.baseURL + "/progress?tokens=" + url.QueryEscape(strings.Join(tokens, ""))

	var res track.ProgressResult
	err := c.getJSONOnce(ctx, endpoint, &res, c.observeProgress)
	if err != nil {
		if c.timings != nil {
			c.timings.IncProgressFailure()
		}
		return nil, err
	}
	return &res, nil
}

// Summary fetches the terminal status fields for one finished file
func (c *Client) Summary(ctx context.Context, token string) (*track.Summary, error) {
	endpoint := c.baseURL + "/summary/" + url.PathEscape(token)

	var sum track.Summary
	if err := c.getJSON(ctx, endpoint, &sum, c.observeSummary); err != nil {
		return nil, err
	}
	return &sum, nil
}

// Outcomes fetches the full outcome list plus occurrence counts for one
// file and check category
func (c *Client) Outcomes(ctx context.Context, fileID, category string) (*report.Document, error) {
	endpoint := c.baseURL + "/outcomes/" + url.PathEscape(fileID)
	if category != "" {
		endpoint += "?category=" + url.QueryEscape(category)
	}

	var doc report.Document
	if err := c.getJSON(ctx, endpoint, &doc, c.observeOutcomes); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) observeProgress(d time.Duration) {
	if c.timings != nil {
		c.timings.ObserveProgressHTTP(d)
	}
}

func (c *Client) observeSummary(d time.Duration) {
	if c.timings != nil {
		c.timings.ObserveSummaryHTTP(d)
	}
}

func (c *Client) observeOutcomes(d time.Duration) {
	if c.timings != nil {
		c.timings.ObserveOutcomesHTTP(d)
	}
}

// getJSON fetches with bounded retry and exponential backoff
func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}, observe func(time.Duration)) error {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if c.timings != nil {
				c.timings.IncRetry()
			}

			// Calculate backoff
			backoff := time.Duration(c.backoffMs) * time.Duration(1<<uint(attempt-1)) * time.Millisecond
			if backoff > time.Duration(c.backoffMaxMs)*time.Millisecond {
				backoff = time.Duration(c.backoffMaxMs) * time.Millisecond
			}

			// Check if last error has Retry-After header
			if httpErr, ok := GetHTTPError(lastErr); ok && httpErr.RetryAfter > 0 {
				backoff = httpErr.RetryAfter
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		err := c.getJSONOnce(ctx, endpoint, out, observe)
		if err == nil {
			return nil
		}

		lastErr = err

		if !isRetryable(err) {
			return err
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// getJSONOnce performs one GET and decodes the JSON response
func (c *Client) getJSONOnce(ctx context.Context, endpoint string, out interface{}, observe func(time.Duration)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request error: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	httpStart := time.Now()
	resp, err := c.client.Do(req)
	if observe != nil {
		observe(time.Since(httpStart))
	}
	if err != nil {
		return fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       string(bodyBytes),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode error: %w", err)
	}
	return nil
}

// isRetryable checks if error is retryable
func isRetryable(err error) bool {
	httpErr, ok := GetHTTPError(err)
	if !ok {
		// Network errors are retryable
		return true
	}

	// 429 and 5xx are retryable
	if httpErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if httpErr.StatusCode >= 500 {
		return true
	}

	// Other 4xx are not retryable
	return false
}

// parseRetryAfter parses a Retry-After header given as seconds
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return 0
}

// HTTPError represents a non-200 backend response
type HTTPError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// GetHTTPError extracts an HTTPError from err if possible
func GetHTTPError(err error) (*HTTPError, bool) {
	httpErr, ok := err.(*HTTPError)
	return httpErr, ok
}
