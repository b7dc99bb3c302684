package fetch

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// RestyTransport adapts resty.Client to the Transport interface.
type RestyTransport struct {
	client *resty.Client
}

// NewRestyTransport creates a RestyTransport with the specified timeout. It
// accepts the same options as NewHTTPTransport; WithHTTPClient supplies the
// underlying client resty wraps.
func NewRestyTransport(timeout time.Duration, opts ...TransportOption) *RestyTransport {
	settings := &HTTPTransport{
		timeout:      timeout,
		maxRedirects: DefaultMaxRedirects,
		validateSSL:  true,
	}
	for _, opt := range opts {
		opt(settings)
	}

	var c *resty.Client
	policy := redirectPolicy(settings.maxRedirects)
	if settings.httpClient != nil {
		policy = wrapRedirectPolicy(settings.httpClient.CheckRedirect, settings.maxRedirects)
		c = resty.NewWithClient(settings.httpClient)
	} else {
		c = resty.New()
	}

	c.SetTimeout(settings.timeout)
	c.SetRedirectPolicy(resty.RedirectPolicyFunc(policy))
	if !settings.validateSSL {
		c.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	if settings.proxyURL != "" {
		c.SetProxy(settings.proxyURL)
	}
	return &RestyTransport{client: c}
}

// NewRestyTransportFromClient wraps an already configured resty.Client.
func NewRestyTransportFromClient(client *resty.Client) *RestyTransport {
	return &RestyTransport{client: client}
}

func (r *RestyTransport) Fetch(ctx context.Context, rawURL string, req *RequestConfig) (*Response, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	rr := r.client.R().SetContext(withRedirectMode(ctx, req.Redirect))
	if len(req.Headers) > 0 {
		rr.SetHeaders(req.Headers)
	}
	if cc := cacheControlFor(req.Cache); cc != "" && !hasHeader(req.Headers, "Cache-Control") {
		rr.SetHeader("Cache-Control", cc)
	}
	if len(req.Query) > 0 {
		rr.SetQueryParams(req.Query)
	}
	if req.Body != "" {
		rr.SetBody(req.Body)
	}

	method := req.Method
	if method == "" {
		method = resty.MethodGet
	}

	resp, err := rr.Execute(method, rawURL)
	if err != nil {
		return nil, err
	}

	return &Response{
		URL:        req.BuildURL(rawURL),
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Headers:    flattenHeader(resp.Header()),
		Body:       resp.Body(),
		Duration:   resp.Time(),
	}, nil
}

func hasHeader(headers map[string]string, key string) bool {
	for k := range headers {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}
