// Package supabase is a small PostgREST and Storage client for the Julook
// Supabase project, plus the catalog.Remote implementation built on it.
package supabase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dshills/julook/internal/logging"
)

// RequestObserver records completed requests, typically for metrics.
type RequestObserver interface {
	ObserveRemote(method, table string, status int, d time.Duration)
}

// Config holds client configuration.
type Config struct {
	URL     string
	AnonKey string

	// AccessToken is the signed-in user's JWT. When empty the anon key is
	// sent as the bearer token.
	AccessToken string

	HTTPClient *http.Client

	// RateLimit caps requests per second; zero disables limiting.
	RateLimit float64
	Burst     int

	Retry    RetryConfig
	Logger   *logging.Logger
	Observer RequestObserver
}

// Client is a Supabase REST client.
type Client struct {
	baseURL     string
	apiKey      string
	accessToken string
	httpClient  *http.Client
	limiter     *rate.Limiter
	retry       RetryConfig
	logger      *logging.Logger
	observer    RequestObserver
}

// New creates a client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("supabase: URL is required")
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("supabase: invalid URL: %w", err)
	}
	if cfg.AnonKey == "" {
		return nil, errors.New("supabase: anon key is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		baseURL:     strings.TrimSuffix(cfg.URL, "/"),
		apiKey:      cfg.AnonKey,
		accessToken: cfg.AccessToken,
		httpClient:  httpClient,
		limiter:     limiter,
		retry:       cfg.Retry,
		logger:      logger.WithComponent("supabase"),
		observer:    cfg.Observer,
	}, nil
}

// From starts a query on table.
func (c *Client) From(table string) *Query {
	return &Query{client: c, table: table, params: url.Values{}}
}

// PublicURL returns the public URL of an object in a storage bucket.
func (c *Client) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, bucket, strings.TrimPrefix(path, "/"))
}

// Download fetches a public storage object.
func (c *Client) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	resp, err := c.do(ctx, "storage:"+bucket, http.MethodGet, c.PublicURL(bucket, path), nil, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// RPC calls a Postgres function exposed by PostgREST.
func (c *Client) RPC(ctx context.Context, fn string, body []byte) (*Response, error) {
	reqURL := fmt.Sprintf("%s/rest/v1/rpc/%s", c.baseURL, fn)
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	return c.do(ctx, "rpc:"+fn, http.MethodPost, reqURL, body, header)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	token := c.accessToken
	if token == "" {
		token = c.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
}

// do sends a request with rate limiting and retries. Only idempotent
// requests are retried. Non-2xx responses are returned as *Error.
func (c *Client) do(ctx context.Context, table, method, reqURL string, body []byte, header http.Header) (*Response, error) {
	retry := idempotent(method, header)
	var lastErr error
	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("supabase: rate limit: %w", err)
			}
		}

		resp, err := c.roundTrip(ctx, table, method, reqURL, body, header)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retry || attempt >= c.retry.MaxRetries || !c.retry.retryable(err) {
			return nil, lastErr
		}
		wait := c.retry.backoff(attempt)
		c.logger.Debug("retrying request", "method", method, "table", table, "attempt", attempt+1, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// idempotent reports whether sending the request twice has the same effect
// as sending it once. A POST qualifies only as a merging upsert; a plain
// insert that timed out may already have been stored.
func idempotent(method string, header http.Header) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	case http.MethodPost:
		return strings.Contains(header.Get("Prefer"), "resolution=merge-duplicates")
	}
	return false
}

func (c *Client) roundTrip(ctx context.Context, table, method, reqURL string, body []byte, header http.Header) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("supabase: create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	c.setHeaders(req)

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, table, 0, start)
		return nil, fmt.Errorf("supabase: %s %s: %w", method, table, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	c.observe(method, table, httpResp.StatusCode, start)
	if err != nil {
		return nil, fmt.Errorf("supabase: read response: %w", err)
	}

	resp := &Response{StatusCode: httpResp.StatusCode, Body: data, Headers: httpResp.Header}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) observe(method, table string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveRemote(method, table, status, time.Since(start))
	}
}
