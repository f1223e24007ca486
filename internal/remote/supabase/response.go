package supabase

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/tidwall/gjson"

	"github.com/dshills/julook/internal/catalog"
)

// Response is a successful PostgREST response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("supabase: decode response: %w", err)
	}
	return nil
}

// Err returns an *Error for non-2xx responses.
func (r *Response) Err() error {
	if r.StatusCode >= 200 && r.StatusCode < 300 {
		return nil
	}
	body := gjson.ParseBytes(r.Body)
	e := &Error{
		Status:  r.StatusCode,
		Code:    body.Get("code").String(),
		Message: body.Get("message").String(),
		Details: body.Get("details").String(),
		Hint:    body.Get("hint").String(),
	}
	if e.Message == "" {
		e.Message = body.Get("error").String()
	}
	if e.Message == "" {
		e.Message = http.StatusText(r.StatusCode)
	}
	return e
}

// codeNoRows is PostgREST's "JSON object requested, multiple (or no) rows
// returned" error for single-object requests.
const codeNoRows = "PGRST116"

// Error is a PostgREST or Storage error response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details string
	Hint    string
}

// Error implements error.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase: %d: %s", e.Status, e.Message)
}

// Unwrap maps well-known responses to catalog sentinels.
func (e *Error) Unwrap() error {
	switch {
	case e.Status == http.StatusNotFound, e.Code == codeNoRows:
		return catalog.ErrNotFound
	case e.Status == http.StatusConflict, e.Code == "23505":
		return catalog.ErrConflict
	default:
		return nil
	}
}

// RetryConfig configures retries of transient failures.
type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	Jitter            float64
	RetryableStatus   []int
}

// DefaultRetryConfig returns the default retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        2,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        2 * time.Second,
		BackoffMultiplier: 2,
		Jitter:            0.1,
		RetryableStatus: []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

func (r RetryConfig) retryable(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return slices.Contains(r.RetryableStatus, apiErr.Status)
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (r RetryConfig) backoff(attempt int) time.Duration {
	mult := r.BackoffMultiplier
	if mult <= 0 {
		mult = 2
	}
	d := float64(r.InitialBackoff) * math.Pow(mult, float64(attempt))
	if r.MaxBackoff > 0 && d > float64(r.MaxBackoff) {
		d = float64(r.MaxBackoff)
	}
	if r.Jitter > 0 {
		d += d * r.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(d)
}
