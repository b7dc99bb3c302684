package hooks

import (
	"context"
	"strings"

	"github.com/abdul-hamid-achik/fetchwrap/packages/fetch"
)

// SetHeader returns a hook that sets key on every request.
func SetHeader(key, value string) fetch.BeforeHook {
	return SetHeaders(map[string]string{key: value})
}

// SetHeaders returns a hook that sets every header in headers, replacing
// existing values under any casing.
func SetHeaders(headers map[string]string) fetch.BeforeHook {
	return func(_ context.Context, req *fetch.RequestConfig) (*fetch.RequestConfig, error) {
		next := req.Clone()
		for k, v := range headers {
			deleteHeader(next.Headers, k)
			next.SetHeader(k, v)
		}
		return next, nil
	}
}

func headerValue(headers map[string]string, key string) (string, bool) {
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

func deleteHeader(headers map[string]string, key string) {
	for k := range headers {
		if strings.EqualFold(k, key) {
			delete(headers, k)
		}
	}
}
