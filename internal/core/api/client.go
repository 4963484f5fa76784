package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/finscreener/finscreener-mcp/internal/core"
	"github.com/finscreener/finscreener-mcp/internal/metrics"
	"github.com/finscreener/finscreener-mcp/internal/observability"
)

const (
	// Prefix is the namespace segment shared by the developer API endpoints.
	Prefix = "/api"

	DefaultBaseURL = "https://api.finscreener.in"
	DefaultTimeout = 30 * time.Second

	timeoutMessage = "Request timed out. Try with a simpler query."
)

// Credentials supplies the bearer token attached to outgoing calls.
type Credentials interface {
	EnsureToken(ctx context.Context)
	AuthorizationHeader() string
}

// Config configures a Client. Zero values fall back to defaults.
type Config struct {
	BaseURL     string
	HTTPClient  *http.Client
	Credentials Credentials
	Timeout     time.Duration
	Logger      observability.Logger
}

// Request describes one upstream call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON-encoded when non-nil.
	Body    any
	Timeout time.Duration
	// SkipPrefix leaves Path as given instead of placing it under Prefix.
	SkipPrefix bool
}

// Option adjusts a Request built by the convenience helpers.
type Option func(*Request)

// WithTimeout overrides the call timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Request) { r.Timeout = d }
}

// WithQuery sets query parameters.
func WithQuery(q url.Values) Option {
	return func(r *Request) { r.Query = q }
}

// WithoutPrefix sends the path outside the API namespace.
func WithoutPrefix() Option {
	return func(r *Request) { r.SkipPrefix = true }
}

// Client executes calls against the upstream API and normalizes every
// outcome into a core.Result. It never retries.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	credentials Credentials
	timeout     time.Duration
	logger      observability.Logger

	mu        sync.Mutex
	rateLimit *core.RateLimitInfo
}

// NewClient returns a client with defaults applied.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}

	c := &Client{
		baseURL:     base,
		httpClient:  cfg.HTTPClient,
		credentials: cfg.Credentials,
		timeout:     cfg.Timeout,
		logger:      cfg.Logger,
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.logger == nil {
		c.logger = observability.NopLogger()
	}
	return c
}

// BaseURL returns the configured API origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// LastRateLimit returns a copy of the most recent rate-limit figures seen in
// a success body, or nil when none has been seen.
func (c *Client) LastRateLimit() *core.RateLimitInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rateLimit.Clone()
}

func (c *Client) recordRateLimit(info *core.RateLimitInfo) {
	c.mu.Lock()
	c.rateLimit = info
	c.mu.Unlock()
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values, opts ...Option) core.Result {
	return c.Execute(ctx, buildRequest(http.MethodGet, path, nil, append([]Option{WithQuery(query)}, opts...)))
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any, opts ...Option) core.Result {
	return c.Execute(ctx, buildRequest(http.MethodPost, path, body, opts))
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any, opts ...Option) core.Result {
	return c.Execute(ctx, buildRequest(http.MethodPut, path, body, opts))
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, opts ...Option) core.Result {
	return c.Execute(ctx, buildRequest(http.MethodDelete, path, nil, opts))
}

func buildRequest(method, path string, body any, opts []Option) Request {
	req := Request{Method: method, Path: path, Body: body}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

// Execute performs exactly one upstream call and classifies the outcome.
// It always returns a Result; panics inside the call are recovered and
// reported as unexpected failures.
func (c *Client) Execute(ctx context.Context, req Request) (result core.Result) {
	start := time.Now()
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Unexpected error during API request",
				zap.String("method", method),
				zap.String("path", req.Path),
				zap.Any("panic", r),
				zap.Stack("stack"))
			result = core.Fail(core.FailureUnexpected, fmt.Sprintf("Unexpected error: %v", r))
		}
		c.observe(method, req.Path, result, time.Since(start))
	}()

	if !supportedMethod(method) {
		return c.unexpected(method, req.Path, fmt.Errorf("unsupported method %q", req.Method))
	}
	if strings.TrimSpace(req.Path) == "" {
		return c.unexpected(method, req.Path, errors.New("empty request path"))
	}

	target, err := c.resolveURL(req.Path, req.SkipPrefix, req.Query)
	if err != nil {
		return c.unexpected(method, req.Path, err)
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return c.unexpected(method, req.Path, fmt.Errorf("encode request: %w", err))
		}
		body = bytes.NewReader(payload)
	}

	if c.credentials != nil {
		c.credentials.EnsureToken(ctx)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, method, target, body)
	if err != nil {
		return c.unexpected(method, req.Path, fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.credentials != nil {
		if header := c.credentials.AuthorizationHeader(); header != "" {
			httpReq.Header.Set("Authorization", header)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransportError(err)
	}

	return c.classify(method, req.Path, resp.StatusCode, respBody)
}

func (c *Client) classify(method, path string, status int, body []byte) core.Result {
	switch {
	case status == http.StatusTooManyRequests:
		return classifyRateLimited(body)
	case status >= http.StatusBadRequest:
		return core.FailStatus(core.FailureUpstreamHTTP, status,
			fmt.Sprintf("API Error (%d): %s", status, core.ErrorDetail(body)))
	}

	if status == http.StatusNoContent {
		return core.Success(nil)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return c.unexpected(method, path, fmt.Errorf("decode response: empty body with status %d", status))
	}

	data, err := core.DecodeJSON(body)
	if err != nil {
		return c.unexpected(method, path, fmt.Errorf("decode response: %w", err))
	}

	if info := parseRateLimitSnapshot(body); info != nil {
		c.recordRateLimit(info)
	}

	return core.Success(data)
}

// resolveURL places path under Prefix unless skipped or already there, and
// joins it onto the origin.
func (c *Client) resolveURL(path string, skipPrefix bool, query url.Values) (string, error) {
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !skipPrefix && !hasPrefixSegment(path) {
		path = Prefix + path
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("parse request url: %w", err)
	}
	if len(query) > 0 {
		merged := u.Query()
		for key, values := range query {
			for _, v := range values {
				merged.Add(key, v)
			}
		}
		u.RawQuery = merged.Encode()
	}
	return u.String(), nil
}

func hasPrefixSegment(path string) bool {
	return path == Prefix || strings.HasPrefix(path, Prefix+"/") || strings.HasPrefix(path, Prefix+"?")
}

func supportedMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	default:
		return false
	}
}

func classifyTransportError(err error) core.Result {
	if isTimeout(err) {
		return core.Fail(core.FailureTimeout, timeoutMessage)
	}
	return core.Fail(core.FailureTransport, fmt.Sprintf("Request failed: %v", err))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (c *Client) unexpected(method, path string, err error) core.Result {
	c.logger.Error("Unexpected error during API request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Error(err))
	return core.Fail(core.FailureUnexpected, fmt.Sprintf("Unexpected error: %v", err))
}

func (c *Client) observe(method, path string, result core.Result, elapsed time.Duration) {
	outcome := "success"
	status := 0
	if result.Failure != nil {
		outcome = string(result.Failure.Kind)
		status = result.Failure.StatusCode
	}

	metrics.RecordUpstreamRequest(method, outcome, status, elapsed)
	c.logger.Debug("Upstream call",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("outcome", outcome),
		zap.Duration("duration", elapsed))
}
