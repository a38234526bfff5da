// Package apiclient talks to the first-party clinic backend over its cookie
// session.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its Jar is used for the session.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// WithClock overrides time.Now for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(cl *Client) { cl.now = now }
}

// Client is safe for concurrent use. It holds one cookie session.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger zerolog.Logger
	now    func() time.Time

	refreshMu sync.Mutex
}

// New creates a client for the backend at baseURL. A zero timeout keeps the
// net/http default of no timeout.
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api url %q", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	c := &Client{
		base:   u,
		http:   &http.Client{Jar: jar, Timeout: timeout},
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	if c.http.Jar == nil {
		c.http.Jar = jar
	}
	c.logger = c.logger.With().Str("component", "apiclient").Logger()
	return c, nil
}

// BaseURL returns the backend origin.
func (c *Client) BaseURL() string { return c.base.String() }

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	// raw bodies bypass JSON encoding (multipart uploads).
	raw         io.Reader
	contentType string
	noRefresh   bool
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends the request and decodes a 2xx JSON body into out (when non-nil).
func (c *Client) do(ctx context.Context, r request, out any) error {
	if !r.noRefresh {
		c.ensureFresh(ctx)
	}

	body := r.raw
	contentType := r.contentType
	if r.body != nil {
		buf, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encoding %s %s body: %w", r.method, r.path, err)
		}
		body = bytes.NewReader(buf)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.endpoint(r.path, r.query), body)
	if err != nil {
		return fmt.Errorf("building %s %s: %w", r.method, r.path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("method", r.method).Str("path", r.path).Msg("backend unreachable")
		return networkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return networkError(err)
	}

	c.logger.Debug().
		Str("method", r.method).
		Str("path", r.path).
		Int("status", resp.StatusCode).
		Dur("latency", c.now().Sub(start)).
		Msg("backend call")

	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", r.method, r.path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, query: query}, out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.do(ctx, request{method: method, path: path, query: query, body: body}, out)
}
