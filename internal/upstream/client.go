// Package upstream implements the client for the remote post search API.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"echofeed/internal/config"
	"echofeed/internal/middleware"
	"echofeed/internal/models"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// Vendor-imposed bounds on the max_results request parameter.
	minPageSize = 10
	maxPageSize = 100

	defaultMaxRetries = 3
)

// RawPost is one post object as returned by the upstream search API.
type RawPost struct {
	ID        string `json:"id"`
	AuthorID  string `json:"author_id,omitempty"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Meta is the pagination metadata of a search response.
type Meta struct {
	ResultCount int    `json:"result_count,omitempty"`
	NextToken   string `json:"next_token,omitempty"`
}

// SearchResponse is the parsed body of a recent-search call.
type SearchResponse struct {
	Data []RawPost `json:"data"`
	Meta *Meta     `json:"meta,omitempty"`
}

// Client talks to the upstream search API. It is stateless across calls
// apart from connection reuse in the underlying http.Client, and safe
// for concurrent use.
type Client struct {
	baseURL     string
	token       string
	httpClient  *http.Client
	maxRetries  int
	backoffBase time.Duration
}

// NewClient builds a search client from configuration. A missing bearer
// token is a configuration error raised here, not at call time.
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.BearerToken == "" {
		return nil, models.NewConfigurationError("BEARER_TOKEN environment variable is required")
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.XAPIBase, "/"),
		token:   cfg.BearerToken,
		httpClient: &http.Client{
			Timeout:   time.Duration(cfg.UpstreamTimeout) * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		maxRetries:  defaultMaxRetries,
		backoffBase: time.Second,
	}, nil
}

// SearchRecent searches recent posts matching query. maxResults is
// silently clamped into the vendor range before the request is sent.
// Transient failures (429, 5xx, transport errors, timeouts) are retried
// with exponential backoff up to the retry budget; every terminal
// failure surfaces as a single upstream-error kind.
func (c *Client) SearchRecent(ctx context.Context, query string, maxResults int, nextToken string) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("max_results", strconv.Itoa(clampPageSize(maxResults)))
	params.Set("tweet.fields", "created_at,author_id,text,id")
	if nextToken != "" {
		params.Set("next_token", nextToken)
	}
	endpoint := c.baseURL + "/tweets/search/recent?" + params.Encode()

	middleware.Logger.InfoContext(ctx, "searching posts", slog.String("query", query))

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			middleware.UpstreamRetries.Inc()
			select {
			case <-ctx.Done():
				return nil, models.NewUpstreamError(ctx.Err())
			case <-time.After(c.backoffBase << (attempt - 1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, models.NewUpstreamError(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// Connection failures and timeouts are transient.
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if isRetryableStatus(resp.StatusCode) {
			lastErr = fmt.Errorf("upstream returned status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, models.NewUpstreamError(fmt.Errorf("upstream returned status %d", resp.StatusCode))
		}

		var parsed SearchResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, models.NewUpstreamError(fmt.Errorf("invalid response body: %w", err))
		}

		middleware.Logger.InfoContext(ctx, "retrieved posts", slog.Int("count", len(parsed.Data)))
		return &parsed, nil
	}

	return nil, models.NewUpstreamError(fmt.Errorf("retry budget exhausted: %w", lastErr))
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func clampPageSize(n int) int {
	if n < minPageSize {
		return minPageSize
	}
	if n > maxPageSize {
		return maxPageSize
	}
	return n
}
