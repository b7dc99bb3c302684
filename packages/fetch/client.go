package fetch

import (
	"context"
	"encoding/json"
	"reflect"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// Pipeline names accepted by Use.
const (
	PipelineBefore = "before"
	PipelineAfter  = "after"
)

// BeforeHook runs before dispatch. The returned config replaces the one
// passed to the next hook and, finally, to the transport. Returning a nil
// config keeps the current one.
type BeforeHook func(ctx context.Context, req *RequestConfig) (*RequestConfig, error)

// AfterHook runs after the transport returns. The returned response replaces
// the one passed to the next hook and, finally, to the caller. Returning a nil
// response keeps the current one.
type AfterHook func(ctx context.Context, resp *Response, req *RequestConfig) (*Response, error)

// Middleware holds the two ordered pipelines.
type Middleware struct {
	Before []BeforeHook
	After  []AfterHook
}

func (m Middleware) clone() Middleware {
	return Middleware{
		Before: slices.Clone(m.Before),
		After:  slices.Clone(m.After),
	}
}

// Client sends requests through the before/after pipelines and a Transport.
// It is safe for concurrent use. Hooks registered while a request is in
// flight apply from the next request on.
type Client struct {
	mu         sync.RWMutex
	baseURL    string
	middleware Middleware
	transport  Transport
	logger     *zap.Logger
}

type Option func(*Client)

// New creates a Client. Without options it has no base URL, empty pipelines
// and an HTTPTransport.
func New(opts ...Option) *Client {
	c := &Client{
		transport: NewHTTPTransport(),
		logger:    zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.baseURL = normalizeBaseURL(c.baseURL)

	return c
}

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithMiddleware replaces both pipelines.
func WithMiddleware(m Middleware) Option {
	return func(c *Client) {
		c.middleware = m.clone()
	}
}

// WithBefore appends hooks to the before pipeline. Nil hooks are skipped.
func WithBefore(hooks ...BeforeHook) Option {
	return func(c *Client) {
		for _, h := range hooks {
			if h != nil {
				c.middleware.Before = append(c.middleware.Before, h)
			}
		}
	}
}

// WithAfter appends hooks to the after pipeline. Nil hooks are skipped.
func WithAfter(hooks ...AfterHook) Option {
	return func(c *Client) {
		for _, h := range hooks {
			if h != nil {
				c.middleware.After = append(c.middleware.After, h)
			}
		}
	}
}

func WithTransport(t Transport) Option {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Middleware returns a copy of the current pipelines.
func (c *Client) Middleware() Middleware {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.middleware.clone()
}

// Request merges overrides over DefaultRequestConfig, runs the before
// pipeline, resolves url against the base URL, calls the transport and runs
// the after pipeline. The first error from any stage is returned as is.
func (c *Client) Request(ctx context.Context, url string, overrides *RequestConfig) (*Response, error) {
	req := MergeRequestConfig(DefaultRequestConfig(), overrides)
	mw := c.Middleware()

	req, err := runBefore(ctx, mw.Before, req)
	if err != nil {
		c.logger.Debug("before hook failed", zap.String("url", url), zap.Error(err))
		return nil, err
	}

	target, err := ResolveURL(c.baseURL, url)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("dispatching request",
		zap.String("method", req.Method),
		zap.String("url", target),
	)

	resp, err := c.transport.Fetch(ctx, target, req)
	if err != nil {
		c.logger.Debug("transport failed", zap.String("url", target), zap.Error(err))
		return nil, err
	}

	resp, err = runAfter(ctx, mw.After, resp, req)
	if err != nil {
		c.logger.Debug("after hook failed", zap.String("url", target), zap.Error(err))
		return nil, err
	}

	if resp != nil {
		c.logger.Debug("request complete",
			zap.String("method", req.Method),
			zap.String("url", target),
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", resp.Duration),
		)
	}

	return resp, nil
}

func runBefore(ctx context.Context, hooks []BeforeHook, req *RequestConfig) (*RequestConfig, error) {
	acc := req
	for _, hook := range hooks {
		next, err := hook(ctx, acc)
		if err != nil {
			return nil, err
		}
		if next != nil {
			acc = next
		}
	}
	return acc, nil
}

func runAfter(ctx context.Context, hooks []AfterHook, resp *Response, req *RequestConfig) (*Response, error) {
	acc := resp
	for _, hook := range hooks {
		next, err := hook(ctx, acc, req)
		if err != nil {
			return nil, err
		}
		if next != nil {
			acc = next
		}
	}
	return acc, nil
}

func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	return c.Request(ctx, url, &RequestConfig{Method: "GET"})
}

func (c *Client) Post(ctx context.Context, url string, payload any) (*Response, error) {
	return c.withJSONBody(ctx, "POST", url, payload)
}

func (c *Client) Put(ctx context.Context, url string, payload any) (*Response, error) {
	return c.withJSONBody(ctx, "PUT", url, payload)
}

func (c *Client) Patch(ctx context.Context, url string, payload any) (*Response, error) {
	return c.withJSONBody(ctx, "PATCH", url, payload)
}

func (c *Client) Delete(ctx context.Context, url string) (*Response, error) {
	return c.Request(ctx, url, &RequestConfig{Method: "DELETE"})
}

func (c *Client) withJSONBody(ctx context.Context, method, url string, payload any) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return c.Request(ctx, url, &RequestConfig{
		Method: method,
		Body:   string(body),
	})
}

// Use appends hook to the named pipeline ("before" or "after"). The hook must
// be a BeforeHook or AfterHook (or a func with the same signature) matching
// the pipeline. On error neither pipeline is changed.
func (c *Client) Use(hook any, pipeline string) error {
	if isNilHook(hook) {
		return ErrHookRequired
	}

	switch pipeline {
	case PipelineBefore:
		h, ok := toBeforeHook(hook)
		if !ok {
			return ErrHookType
		}
		return c.UseBefore(h)
	case PipelineAfter:
		h, ok := toAfterHook(hook)
		if !ok {
			return ErrHookType
		}
		return c.UseAfter(h)
	default:
		return ErrInvalidPipeline
	}
}

// UseBefore appends hook to the before pipeline.
func (c *Client) UseBefore(hook BeforeHook) error {
	if hook == nil {
		return ErrHookRequired
	}
	c.mu.Lock()
	c.middleware.Before = append(c.middleware.Before, hook)
	c.mu.Unlock()
	return nil
}

// UseAfter appends hook to the after pipeline.
func (c *Client) UseAfter(hook AfterHook) error {
	if hook == nil {
		return ErrHookRequired
	}
	c.mu.Lock()
	c.middleware.After = append(c.middleware.After, hook)
	c.mu.Unlock()
	return nil
}

func isNilHook(hook any) bool {
	if hook == nil {
		return true
	}
	v := reflect.ValueOf(hook)
	return v.Kind() == reflect.Func && v.IsNil()
}

func toBeforeHook(hook any) (BeforeHook, bool) {
	switch h := hook.(type) {
	case BeforeHook:
		return h, true
	case func(context.Context, *RequestConfig) (*RequestConfig, error):
		return h, true
	}
	return nil, false
}

func toAfterHook(hook any) (AfterHook, bool) {
	switch h := hook.(type) {
	case AfterHook:
		return h, true
	case func(context.Context, *Response, *RequestConfig) (*Response, error):
		return h, true
	}
	return nil, false
}
