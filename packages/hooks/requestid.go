package hooks

import (
	"context"

	"github.com/abdul-hamid-achik/fetchwrap/packages/fetch"
	"github.com/google/uuid"
)

// DefaultRequestIDHeader is used by RequestID when no header is given.
const DefaultRequestIDHeader = "X-Request-Id"

// RequestID sets header to a random UUID unless the request already has one.
func RequestID(header string) fetch.BeforeHook {
	if header == "" {
		header = DefaultRequestIDHeader
	}
	return func(_ context.Context, req *fetch.RequestConfig) (*fetch.RequestConfig, error) {
		if _, ok := headerValue(req.Headers, header); ok {
			return req, nil
		}
		return req.Clone().SetHeader(header, uuid.NewString()), nil
	}
}
