// Package remote talks to the carrot REST backend and turns its answers
// into apperr kinds.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/carrot/internal/apperr"
	"github.com/idilsaglam/carrot/internal/logging"
)

// Authenticator supplies request headers and is told when the server
// rejects the session. session.Gate implements it.
type Authenticator interface {
	Headers() map[string]string
	Expire()
}

// Client is a REST client for the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       Authenticator
	log        *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for baseURL.
func New(baseURL string, auth Authenticator, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		auth:       auth,
		log:        logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type requestIDKey struct{}

// WithRequestID tags ctx so the request carries an X-Request-ID header.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// request describes one call. public requests skip the Authorization
// header and never expire the session.
type request struct {
	method string
	path   string
	query  url.Values
	body   io.Reader
	ctype  string
	public bool
}

func (c *Client) do(ctx context.Context, op string, r request, out any) error {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, r.method, u, r.body)
	if err != nil {
		return apperr.Wrap(apperr.Unknown, op, fmt.Errorf("create request: %w", err))
	}
	if r.ctype != "" {
		httpReq.Header.Set("Content-Type", r.ctype)
	}
	httpReq.Header.Set("Accept", "application/json")
	if id := requestID(ctx); id != "" {
		httpReq.Header.Set("X-Request-ID", id)
	}
	if !r.public && c.auth != nil {
		for k, v := range c.auth.Headers() {
			httpReq.Header.Set(k, v)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Debug("request failed", "op", op, "method", r.method, "path", r.path, "err", err)
		return apperr.Wrap(apperr.Network, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Wrap(apperr.Network, op, fmt.Errorf("read response: %w", err))
	}
	c.log.Debug("request", "op", op, "method", r.method, "path", r.path,
		"status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode >= 400 {
		e := &apperr.Error{
			Kind:   apperr.FromStatus(resp.StatusCode),
			Op:     op,
			Status: resp.StatusCode,
			Msg:    errorMessage(resp.StatusCode, body),
		}
		if e.Kind == apperr.Unauthorized && !r.public && c.auth != nil {
			c.auth.Expire()
		}
		return e
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperr.Wrap(apperr.Unknown, op, fmt.Errorf("unmarshal response: %w (body: %s)", err, truncate(body)))
	}
	return nil
}

// errorMessage pulls a human-readable message from an error body. The
// backend answers {"detail": ...}; {"message": ...} is accepted too.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		var s string
		if len(payload.Detail) > 0 && json.Unmarshal(payload.Detail, &s) == nil && s != "" {
			return s
		}
		if len(payload.Detail) > 0 && string(payload.Detail) != "null" {
			return string(payload.Detail)
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if txt := strings.TrimSpace(string(body)); txt != "" && len(txt) < 200 {
		return fmt.Sprintf("HTTP %d: %s", status, txt)
	}
	return fmt.Sprintf("HTTP %d %s", status, http.StatusText(status))
}

func truncate(b []byte) string {
	if len(b) > 200 {
		return string(b[:200]) + "..."
	}
	return string(b)
}

func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return bytes.NewReader(data), nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	body, err := jsonBody(in)
	if err != nil {
		return apperr.Wrap(apperr.Unknown, op, err)
	}
	return c.do(ctx, op, request{method: method, path: path, body: body, ctype: "application/json"}, out)
}
