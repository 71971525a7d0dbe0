// Package domainapi implements ports.DomainInvoker over HTTP: each
// invocation posts {function, params} to the domain's configured endpoint
// and decodes the {success, data|error} answer.
package domainapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/logging"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/ports"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 2
	defaultBaseDelay  = 200 * time.Millisecond
	maxDelay          = 5 * time.Second
)

// idempotentPrefixes marks the function names safe to retry: reads never
// change domain state, so a timed-out read can be repeated. Anything else
// may have committed before the failure and is never blindly retried.
var idempotentPrefixes = []string{"Get", "List", "Find", "Check"}

// invokeBody is the wire request posted to the domain endpoint.
type invokeBody struct {
	Function string         `json:"function"`
	Params   map[string]any `json:"params"`
}

// Client calls domain APIs over HTTP.
type Client struct {
	http       *http.Client
	maxRetries int
	baseDelay  time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	log        *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithMaxRetries bounds retries of idempotent reads. Zero disables retry.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithBaseDelay sets the first backoff delay; later attempts double it.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.baseDelay = d
		}
	}
}

// WithLogger configures a logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// withSleep substitutes the backoff wait; tests use it to avoid real delays.
func withSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = sleep }
}

// NewClient creates an HTTP domain invoker.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:       &http.Client{Timeout: defaultTimeout},
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		sleep:      sleepCtx,
		log:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Invoke posts the function call to the domain endpoint. Transport
// failures and 5xx answers on idempotent reads retry with exponential
// backoff; everything else surfaces after the first attempt. A decoded
// {success:false} answer is a domain-level failure, returned without
// error so the plan's onError handling decides what the user sees.
func (c *Client) Invoke(ctx context.Context, req ports.InvokeRequest) (*ports.InvokeResult, error) {
	if req.Endpoint == "" {
		return nil, &domain.ExternalCallError{
			Target: req.Function,
			Err:    fmt.Errorf("domain %s has no endpoint", req.DomainID),
		}
	}

	body, err := json.Marshal(invokeBody{Function: req.Function, Params: req.Params})
	if err != nil {
		return nil, fmt.Errorf("encode invoke request: %w", err)
	}

	attempts := 1
	if retryable(req.Function) {
		attempts += c.maxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := c.baseDelay << (attempt - 1)
			if delay > maxDelay {
				delay = maxDelay
			}
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
			c.log.Debug("retrying domain call",
				"domain", req.DomainID, "function", req.Function, "attempt", attempt+1)
		}

		result, err := c.post(ctx, req, body)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		var perm *permanentError
		if errors.As(err, &perm) {
			break
		}
	}

	return nil, &domain.ExternalCallError{Target: req.Function, Err: lastErr}
}

func (c *Client) post(ctx context.Context, req ports.InvokeRequest, body []byte) (*ports.InvokeResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<12))
		return nil, fmt.Errorf("domain API returned %s", resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		// 4xx is the caller's fault and will not improve on retry.
		return nil, permanentf("domain API returned %s", resp.Status)
	}

	var result ports.InvokeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode domain API response: %w", err)
	}
	return &result, nil
}

// permanentError marks a failure retry cannot fix.
type permanentError struct{ msg string }

func (e *permanentError) Error() string { return e.msg }

func permanentf(format string, args ...any) error {
	return &permanentError{msg: fmt.Sprintf(format, args...)}
}

// retryable reports whether a function name is an idempotent read.
func retryable(function string) bool {
	for _, prefix := range idempotentPrefixes {
		if strings.HasPrefix(function, prefix) {
			return true
		}
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
