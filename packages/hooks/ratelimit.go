package hooks

import (
	"context"

	"github.com/abdul-hamid-achik/fetchwrap/packages/fetch"
	"golang.org/x/time/rate"
)

// RateLimit blocks each request until limiter allows it. Waiting respects the
// request context; its error is returned unchanged.
func RateLimit(limiter *rate.Limiter) fetch.BeforeHook {
	return func(ctx context.Context, req *fetch.RequestConfig) (*fetch.RequestConfig, error) {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return req, nil
	}
}

// NewLimiter builds a limiter for rps requests per second.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
