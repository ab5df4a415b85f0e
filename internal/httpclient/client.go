// Package httpclient is a data adapter that talks to the marketplace REST API. It implements
// store.Store for plain CRUD and adds typed calls for the domain operations used by marketctl.
package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanshika/marketplace/internal/api"
	"github.com/vanshika/marketplace/internal/config"
	"github.com/vanshika/marketplace/internal/service"
	"github.com/vanshika/marketplace/internal/store"
)

// ErrRetriesExhausted wraps the last failure once every attempt has been used.
var ErrRetriesExhausted = errors.New("retries exhausted")

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Unwrap exposes the sentinel matching the status so callers can use errors.Is the same way they
// would against a local store.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return store.ErrNotFound
	case http.StatusConflict:
		return store.ErrConflict
	case http.StatusForbidden:
		return service.ErrForbidden
	case http.StatusUnauthorized:
		return service.ErrInvalidCredentials
	default:
		return nil
	}
}

// Client speaks JSON to the API with per-attempt timeouts and exponential backoff.
type Client struct {
	baseURL     string
	http        *http.Client
	timeout     time.Duration
	maxAttempts int
	backoff     time.Duration
	logger      *slog.Logger
}

// New builds a Client from the marketctl configuration.
func New(cfg config.ClientConfig, logger *slog.Logger) *Client {
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		http:        &http.Client{},
		timeout:     cfg.Timeout,
		maxAttempts: attempts,
		backoff:     cfg.BaseBackoff,
		logger:      logger,
	}
}

// WithHTTPClient swaps the underlying transport, mainly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// post sends a state-changing POST. It is retried only when the server cannot have acted on it.
func (c *Client) post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

// query sends a read-only POST such as a quote, which is safe to repeat.
func (c *Client) query(ctx context.Context, path string, in, out any) error {
	return c.send(ctx, http.MethodPost, path, in, out, true)
}

// do sends one logical request. GET, PUT and DELETE are retried on 429, 5xx, transport errors
// and attempt timeouts. A POST may already have been committed when a 5xx or a timeout comes
// back, so it is only retried on 429 or when the transport failed before the request was
// written; repeating a checkout would otherwise place the order twice.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	return c.send(ctx, method, path, in, out, method != http.MethodPost)
}

func (c *Client) send(ctx context.Context, method, path string, in, out any, idempotent bool) error {
	var body []byte
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = raw
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		retry, err := c.attempt(ctx, method, path, body, out, idempotent)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err

		if attempt == c.maxAttempts {
			break
		}
		wait := c.backoff << (attempt - 1)
		c.logger.Warn("api request failed, retrying",
			"method", method,
			"path", path,
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("%s %s: %w after %d attempts: %w", method, path, ErrRetriesExhausted, c.maxAttempts, lastErr)
}

func (c *Client) attempt(ctx context.Context, method, path string, body []byte, out any, idempotent bool) (bool, error) {
	attemptCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, c.baseURL+path, reader)
	if err != nil {
		return false, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	var written atomic.Bool
	if !idempotent {
		req = req.WithContext(httptrace.WithClientTrace(req.Context(), &httptrace.ClientTrace{
			WroteRequest: func(info httptrace.WroteRequestInfo) {
				if info.Err == nil {
					written.Store(true)
				}
			},
		}))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// The caller gave up; only our own attempt deadline is worth retrying.
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return idempotent || !written.Load(), fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return idempotent, fmt.Errorf("read %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode}
		var apiErr api.ErrorResponse
		if json.Unmarshal(raw, &apiErr) == nil {
			statusErr.Message = apiErr.Error
		}
		retry := resp.StatusCode == http.StatusTooManyRequests || (idempotent && resp.StatusCode >= 500)
		return retry, statusErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return false, nil
}

func itemPath(collection, id string, action ...string) string {
	p := "/api/" + collection + "/" + url.PathEscape(id)
	for _, a := range action {
		p += "/" + a
	}
	return p
}
