package fetch

import (
	"maps"
	"net/url"
)

// Cache policies understood by the transports. They follow the fetch API names.
const (
	CacheDefault      = "default"
	CacheNoStore      = "no-store"
	CacheReload       = "reload"
	CacheNoCache      = "no-cache"
	CacheForceCache   = "force-cache"
	CacheOnlyIfCached = "only-if-cached"
)

// Redirect modes.
const (
	RedirectFollow = "follow"
	RedirectManual = "manual"
	RedirectError  = "error"
)

// RequestConfig describes a single outgoing request.
//
// A zero field means "not set" when merging. Headers are replaced as a whole,
// never merged key by key.
type RequestConfig struct {
	Method   string
	Headers  map[string]string
	Body     string
	Cache    string
	Redirect string
	Query    map[string]string
}

// DefaultRequestConfig returns the defaults every request starts from.
func DefaultRequestConfig() *RequestConfig {
	return &RequestConfig{
		Method: "GET",
		Cache:  CacheNoCache,
		Headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		},
	}
}

// MergeRequestConfig returns a new config with every set field of override
// replacing the matching field of base. Neither argument is modified.
func MergeRequestConfig(base, override *RequestConfig) *RequestConfig {
	result := base.Clone()
	if override == nil {
		return result
	}

	if override.Method != "" {
		result.Method = override.Method
	}
	if override.Headers != nil {
		result.Headers = maps.Clone(override.Headers)
	}
	if override.Body != "" {
		result.Body = override.Body
	}
	if override.Cache != "" {
		result.Cache = override.Cache
	}
	if override.Redirect != "" {
		result.Redirect = override.Redirect
	}
	if override.Query != nil {
		result.Query = maps.Clone(override.Query)
	}

	return result
}

// Clone returns a copy that shares no maps with r.
func (r *RequestConfig) Clone() *RequestConfig {
	if r == nil {
		return &RequestConfig{}
	}
	c := *r
	c.Headers = maps.Clone(r.Headers)
	c.Query = maps.Clone(r.Query)
	return &c
}

// SetHeader sets a header, allocating the map if needed.
func (r *RequestConfig) SetHeader(key, value string) *RequestConfig {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

// SetQueryParam sets a query parameter, allocating the map if needed.
func (r *RequestConfig) SetQueryParam(key, value string) *RequestConfig {
	if r.Query == nil {
		r.Query = make(map[string]string)
	}
	r.Query[key] = value
	return r
}

// BuildURL adds the Query parameters to rawURL.
func (r *RequestConfig) BuildURL(rawURL string) string {
	if len(r.Query) == 0 {
		return rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	q := u.Query()
	for k, v := range r.Query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
