package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/feedpulse/internal/common"
	"github.com/dmitrijs2005/feedpulse/internal/logging"
	"github.com/google/uuid"
)

const maxBodySize = 4 << 20

type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenSource
	timeout time.Duration
	log     logging.Logger

	mu             sync.RWMutex
	onUnauthorized []func(context.Context)
}

var _ Client = (*HTTPClient)(nil)

type Option func(*HTTPClient)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

// WithTimeout bounds every request; zero means no client-side timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.timeout = d }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

// New returns a client for the backend at baseURL. tokens may be nil.
func New(baseURL string, tokens TokenSource, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host required", baseURL)
	}

	c := &HTTPClient{
		baseURL: u,
		http:    &http.Client{},
		tokens:  tokens,
		log:     logging.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.With("component", "http")
	return c, nil
}

// OnUnauthorized registers fn to run on every 401 response.
func (c *HTTPClient) OnUnauthorized(fn func(ctx context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = append(c.onUnauthorized, fn)
}

func (c *HTTPClient) fireUnauthorized(ctx context.Context) {
	c.mu.RLock()
	handlers := make([]func(context.Context), len(c.onUnauthorized))
	copy(handlers, c.onUnauthorized)
	c.mu.RUnlock()

	for _, fn := range handlers {
		fn(ctx)
	}
}

func (c *HTTPClient) bearer(ctx context.Context) string {
	if t, ok := TokenFromContext(ctx); ok {
		return t
	}
	if c.tokens == nil {
		return ""
	}
	t, err := c.tokens.AccessToken(ctx)
	if err != nil {
		c.log.Warn(ctx, "reading persisted token failed", "error", err)
		return ""
	}
	return t
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, in any, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t := c.bearer(ctx); t != "" {
		req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+t)
	}
	reqID := uuid.NewString()
	req.Header.Set(common.RequestIDHeader, reqID)

	log := c.log.With("method", method, "path", path, "request_id", reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn(ctx, "no response", "error", err)
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}
	log.Debug(ctx, "response", "status", resp.StatusCode)

	if resp.StatusCode == http.StatusUnauthorized {
		c.fireUnauthorized(ctx)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return &APIError{Method: method, Path: path, Status: resp.StatusCode, Detail: parseDetail(data)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parseDetail extracts the "detail" field the backend puts on errors. It is
// either a string or a list of validation items carrying "msg".
func parseDetail(data []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(body.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
