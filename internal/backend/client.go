// Package backend is the REST client for the hotel booking backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/karlseguin/ccache/v3"

	"github.com/simp-lee/hotelweb/internal/domain"
)

const maxErrorBody = 64 << 10

// Options configures a Client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	RoomsPath string

	// Room detail cache. Disabled when CacheTTL is zero.
	CacheTTL     time.Duration
	CacheMaxSize int64

	HTTPClient *http.Client
	Logger     *slog.Logger

	// OnUnauthorized runs when the backend answers 401 or 403.
	OnUnauthorized func(ctx context.Context)
}

// Client talks to the booking backend. It is safe for concurrent use.
type Client struct {
	baseURL        *url.URL
	roomsPath      string
	http           *http.Client
	logger         *slog.Logger
	rooms          *ccache.Cache[*domain.Room]
	cacheTTL       time.Duration
	onUnauthorized func(ctx context.Context)
}

// StatusError describes a non-2xx backend response.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s %s: status %d", e.Method, e.Path, e.Status)
}

// New creates a backend client.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend: invalid base url %q", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	roomsPath := opts.RoomsPath
	if roomsPath == "" {
		roomsPath = "/api/room/"
	}
	if !strings.HasSuffix(roomsPath, "/") {
		roomsPath += "/"
	}

	c := &Client{
		baseURL:        base,
		roomsPath:      roomsPath,
		http:           httpClient,
		logger:         logger,
		cacheTTL:       opts.CacheTTL,
		onUnauthorized: opts.OnUnauthorized,
	}
	if opts.CacheTTL > 0 {
		size := opts.CacheMaxSize
		if size <= 0 {
			size = 500
		}
		c.rooms = ccache.New(ccache.Configure[*domain.Room]().MaxSize(size))
	}
	return c, nil
}

// SetUnauthorizedHook replaces the 401/403 hook. It must be called before
// the client is shared.
func (c *Client) SetUnauthorizedHook(fn func(ctx context.Context)) {
	c.onUnauthorized = fn
}

// Close stops the room cache.
func (c *Client) Close() {
	if c.rooms != nil {
		c.rooms.Stop()
	}
}

// request describes one backend call.
type request struct {
	method   string
	path     string
	token    string
	query    url.Values
	body     any
	fallback string
}

// do sends req and decodes a 2xx JSON body into out (when out is non-nil).
// Failures are returned as *domain.AppError whose message is the backend's
// message or details field, else req.fallback.
func (c *Client) do(ctx context.Context, req request, out any) error {
	u := *c.baseURL
	rawPath := c.baseURL.EscapedPath() + req.path
	p, err := url.PathUnescape(rawPath)
	if err != nil {
		return domain.NewAppError(domain.CodeInternal, req.fallback, err)
	}
	u.Path, u.RawPath = p, rawPath
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		buf, err := json.Marshal(req.body)
		if err != nil {
			return domain.NewAppError(domain.CodeInternal, req.fallback, err)
		}
		body = bytes.NewReader(buf)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return domain.NewAppError(domain.CodeInternal, req.fallback, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.WarnContext(ctx, "backend request failed",
			"method", req.method, "path", req.path, "error", err)
		return domain.NewAppError(domain.CodeUpstream, req.fallback, err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "backend request",
		"method", req.method,
		"path", req.path,
		"status", resp.StatusCode,
		"latency", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(ctx, req, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return domain.NewAppError(domain.CodeUpstream, req.fallback,
			fmt.Errorf("decode %s %s: %w", req.method, req.path, err))
	}
	return nil
}

// pathSegment escapes a backend ID for use as one path segment. Dot
// segments are refused so an ID cannot climb out of its collection.
func pathSegment(id string) (string, bool) {
	id = strings.TrimSpace(id)
	if id == "" || id == "." || id == ".." {
		return "", false
	}
	return url.PathEscape(id), true
}

// errorBody is the failure payload the backend may send.
type errorBody struct {
	Message string `json:"message"`
	Details string `json:"details"`
	Error   string `json:"error"`
}

func (c *Client) statusError(ctx context.Context, req request, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	msg := req.fallback
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil {
		switch {
		case eb.Message != "":
			msg = eb.Message
		case eb.Details != "":
			msg = eb.Details
		case eb.Error != "":
			msg = eb.Error
		}
	}

	cause := &StatusError{
		Method: req.method,
		Path:   req.path,
		Status: resp.StatusCode,
		Body:   string(raw),
	}

	code := domain.CodeUpstream
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		code = domain.CodeUnauthorized
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
	case resp.StatusCode == http.StatusNotFound:
		code = domain.CodeNotFound
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		code = domain.CodeValidation
	}

	c.logger.WarnContext(ctx, "backend returned error",
		"method", req.method,
		"path", req.path,
		"status", resp.StatusCode,
		"message", msg,
	)
	return domain.NewAppError(code, msg, cause)
}
