package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool
	DefaultMaxIdleConns = 100
	// DefaultMaxIdleConnsPerHost is the maximum number of idle connections per host
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second
)

// ErrRedirectNotAllowed is returned when a request with Redirect "error"
// receives a redirect.
var ErrRedirectNotAllowed = errors.New("redirect not allowed")

// Transport performs the actual network call.
type Transport interface {
	Fetch(ctx context.Context, url string, req *RequestConfig) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, url string, req *RequestConfig) (*Response, error)

func (f TransportFunc) Fetch(ctx context.Context, url string, req *RequestConfig) (*Response, error) {
	return f(ctx, url, req)
}

type redirectModeKey struct{}

// HTTPTransport is the default Transport, backed by net/http.
type HTTPTransport struct {
	httpClient   *http.Client
	timeout      time.Duration
	maxRedirects int
	validateSSL  bool
	proxyURL     string
}

type TransportOption func(*HTTPTransport)

func NewHTTPTransport(opts ...TransportOption) *HTTPTransport {
	t := &HTTPTransport{
		timeout:      DefaultTimeout,
		maxRedirects: DefaultMaxRedirects,
		validateSSL:  true,
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.httpClient != nil {
		t.httpClient.CheckRedirect = wrapRedirectPolicy(t.httpClient.CheckRedirect, t.maxRedirects)
		return t
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	}

	if !t.validateSSL {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	if t.proxyURL != "" {
		proxyURL, err := neturl.Parse(t.proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	t.httpClient = &http.Client{
		Transport:     transport,
		Timeout:       t.timeout,
		CheckRedirect: redirectPolicy(t.maxRedirects),
	}

	return t
}

func WithTimeout(d time.Duration) TransportOption {
	return func(t *HTTPTransport) {
		t.timeout = d
	}
}

func WithMaxRedirects(max int) TransportOption {
	return func(t *HTTPTransport) {
		t.maxRedirects = max
	}
}

// WithValidateSSL enables or disables SSL certificate validation
func WithValidateSSL(validate bool) TransportOption {
	return func(t *HTTPTransport) {
		t.validateSSL = validate
	}
}

// WithProxy sets the proxy URL for all requests
func WithProxy(proxyURL string) TransportOption {
	return func(t *HTTPTransport) {
		t.proxyURL = proxyURL
	}
}

// WithHTTPClient sends requests through a copy of client. Timeout, proxy and
// SSL options are ignored. The per-request manual and error redirect modes
// take precedence over the client's own CheckRedirect, which otherwise
// decides as before; a nil CheckRedirect follows up to the max redirects.
func WithHTTPClient(client *http.Client) TransportOption {
	return func(t *HTTPTransport) {
		if client != nil {
			c := *client
			t.httpClient = &c
		}
	}
}

// redirectPolicy honors the Redirect mode carried in the request context.
func redirectPolicy(maxRedirects int) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if handled, err := redirectModeDecision(req); handled {
			return err
		}
		if len(via) >= maxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	}
}

// wrapRedirectPolicy applies the request's redirect mode before next. A nil
// next falls back to redirectPolicy.
func wrapRedirectPolicy(next func(*http.Request, []*http.Request) error, maxRedirects int) func(*http.Request, []*http.Request) error {
	if next == nil {
		return redirectPolicy(maxRedirects)
	}
	return func(req *http.Request, via []*http.Request) error {
		if handled, err := redirectModeDecision(req); handled {
			return err
		}
		return next(req, via)
	}
}

// redirectModeDecision reports whether the context's redirect mode settles
// the redirect on its own, and with which error.
func redirectModeDecision(req *http.Request) (bool, error) {
	mode, _ := req.Context().Value(redirectModeKey{}).(string)
	switch mode {
	case RedirectManual:
		return true, http.ErrUseLastResponse
	case RedirectError:
		return true, fmt.Errorf("%w: %s", ErrRedirectNotAllowed, req.URL.Redacted())
	}
	return false, nil
}

func withRedirectMode(ctx context.Context, mode string) context.Context {
	if mode == "" {
		return ctx
	}
	return context.WithValue(ctx, redirectModeKey{}, mode)
}

// Fetch sends req to rawURL and reads the whole response body.
func (t *HTTPTransport) Fetch(ctx context.Context, rawURL string, req *RequestConfig) (*Response, error) {
	target := req.BuildURL(rawURL)
	if err := ValidateURL(target); err != nil {
		return nil, err
	}

	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(withRedirectMode(ctx, req.Redirect), req.Method, target, body)
	if err != nil {
		return nil, err
	}

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if cc := cacheControlFor(req.Cache); cc != "" && httpReq.Header.Get("Cache-Control") == "" {
		httpReq.Header.Set("Cache-Control", cc)
	}

	start := time.Now()
	httpResp, err := t.httpClient.Do(httpReq)
	duration := time.Since(start)

	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		URL:        target,
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    flattenHeader(httpResp.Header),
		Body:       respBody,
		Duration:   duration,
	}, nil
}

// cacheControlFor maps a fetch cache policy to a Cache-Control request header.
func cacheControlFor(policy string) string {
	switch policy {
	case CacheNoCache, CacheReload:
		return "no-cache"
	case CacheNoStore:
		return "no-store"
	case CacheForceCache, CacheOnlyIfCached:
		return "max-stale"
	}
	return ""
}

func flattenHeader(h http.Header) map[string]string {
	headers := make(map[string]string, len(h))
	for k := range h {
		headers[k] = h.Get(k)
	}
	return headers
}
