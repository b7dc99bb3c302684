package hooks

import (
	"context"

	"github.com/abdul-hamid-achik/fetchwrap/packages/fetch"
)

// RequireSuccess fails requests whose status is outside 2xx with a
// *fetch.StatusError.
func RequireSuccess() fetch.AfterHook {
	return func(_ context.Context, resp *fetch.Response, _ *fetch.RequestConfig) (*fetch.Response, error) {
		if resp.IsSuccess() {
			return resp, nil
		}
		return nil, &fetch.StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        resp.URL,
			Body:       resp.Body,
		}
	}
}
