package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/portalshell-go/internal/telemetry/metric"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 30 * time.Second

// Client sends requests through the registered hooks.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
	metrics *metric.Registry

	mu            sync.RWMutex
	requestHooks  []RequestHook
	responseHooks []ResponseHook
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying client. It is copied, not modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			cp := *hc
			c.http = &cp
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithRateLimit throttles outgoing requests. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics instruments the transport.
func WithMetrics(m *metric.Registry) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithRequestHooks registers request hooks, in order.
func WithRequestHooks(hooks ...RequestHook) Option {
	return func(c *Client) {
		c.requestHooks = append(c.requestHooks, hooks...)
	}
}

// WithResponseHooks registers response hooks, in order.
func WithResponseHooks(hooks ...ResponseHook) Option {
	return func(c *Client) {
		c.responseHooks = append(c.responseHooks, hooks...)
	}
}

// New creates a client for the API at baseURL. A missing scheme means
// http://.
func New(baseURL string, opts ...Option) *Client {
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics != nil {
		c.http.Transport = c.metrics.InstrumentTransport(c.http.Transport)
	}
	return c
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// UseRequest appends a request hook.
func (c *Client) UseRequest(h RequestHook) {
	c.mu.Lock()
	c.requestHooks = append(c.requestHooks, h)
	c.mu.Unlock()
}

// UseResponse appends a response hook.
func (c *Client) UseResponse(h ResponseHook) {
	c.mu.Lock()
	c.responseHooks = append(c.responseHooks, h)
	c.mu.Unlock()
}

// URL resolves path against the base URL. Absolute URLs are returned as is.
func (c *Client) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// NewRequest builds a request for path relative to the base URL.
func (c *Client) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return req, nil
}

// Do sends req through the hooks.
//
// A 2xx response is returned after the success hooks ran. Any other outcome
// returns a nil response and the error produced by the failure hooks,
// normally a *ResponseError or *RequestError.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	c.mu.RLock()
	reqHooks := append([]RequestHook(nil), c.requestHooks...)
	respHooks := append([]ResponseHook(nil), c.responseHooks...)
	c.mu.RUnlock()

	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, c.fail(respHooks, &RequestError{
				Method: req.Method,
				URL:    req.URL.String(),
				Err:    fmt.Errorf("rate limit: %w", err),
			})
		}
	}

	for _, h := range reqHooks {
		c.runRequestHook(h, req)
	}

	requestID := req.Header.Get(HeaderRequestID)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			"request_id", requestID,
			"method", req.Method,
			"url", req.URL.String(),
			"error", err,
		)
		return nil, c.fail(respHooks, &RequestError{
			Method: req.Method,
			URL:    req.URL.String(),
			Err:    err,
		})
	}

	c.logger.Debug("request completed",
		"request_id", requestID,
		"method", req.Method,
		"url", req.URL.String(),
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		for _, h := range respHooks {
			resp = c.runSuccessHook(h, resp)
		}
		return resp, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()

	return nil, c.fail(respHooks, &ResponseError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Method:     req.Method,
		URL:        req.URL.String(),
		Header:     resp.Header,
		Body:       body,
		Request:    req,
	})
}

// Send builds and sends a request in one call.
func (c *Client) Send(ctx context.Context, method, path string, body []byte, header http.Header) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := c.NewRequest(ctx, method, path, r)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return c.Do(req)
}

func (c *Client) fail(hooks []ResponseHook, err error) error {
	for _, h := range hooks {
		err = c.runFailureHook(h, err)
	}
	return err
}

// runRequestHook isolates a panicking hook so the request is still sent.
func (c *Client) runRequestHook(h RequestHook, req *http.Request) {
	defer func() {
		if r := recover(); r != nil {
			c.hookPanicked("request", r)
		}
	}()
	h.BeforeSend(req)
}

func (c *Client) runSuccessHook(h ResponseHook, resp *http.Response) (out *http.Response) {
	out = resp
	defer func() {
		if r := recover(); r != nil {
			c.hookPanicked("response", r)
			out = resp
		}
	}()
	if next := h.OnSuccess(resp); next != nil {
		out = next
	}
	return out
}

func (c *Client) runFailureHook(h ResponseHook, err error) (out error) {
	out = err
	defer func() {
		if r := recover(); r != nil {
			c.hookPanicked("response", r)
			out = err
		}
	}()
	if next := h.OnFailure(err); next != nil {
		out = next
	}
	return out
}

func (c *Client) hookPanicked(stage string, r any) {
	c.logger.Error("pipeline hook panicked",
		"stage", stage,
		"panic", fmt.Sprint(r),
	)
	if c.metrics != nil {
		c.metrics.IncHookPanic(stage)
	}
}
