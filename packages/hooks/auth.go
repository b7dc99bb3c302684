package hooks

import (
	"context"
	"encoding/base64"

	"github.com/abdul-hamid-achik/fetchwrap/packages/fetch"
)

// TokenSource returns the current bearer token. It is called once per request,
// so it can refresh an expired token before returning.
type TokenSource func(ctx context.Context) (string, error)

// StaticToken returns a TokenSource that always yields token.
func StaticToken(token string) TokenSource {
	return func(context.Context) (string, error) {
		return token, nil
	}
}

// BasicAuth sets an Authorization: Basic header.
func BasicAuth(username, password string) fetch.BeforeHook {
	creds := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return SetHeader("Authorization", "Basic "+creds)
}

// BearerToken sets an Authorization: Bearer header from source. An error from
// source aborts the request with that error.
func BearerToken(source TokenSource) fetch.BeforeHook {
	return func(ctx context.Context, req *fetch.RequestConfig) (*fetch.RequestConfig, error) {
		token, err := source(ctx)
		if err != nil {
			return nil, err
		}
		next := req.Clone()
		deleteHeader(next.Headers, "Authorization")
		next.SetHeader("Authorization", "Bearer "+token)
		return next, nil
	}
}

// APIKey sets an API key header.
func APIKey(header, value string) fetch.BeforeHook {
	return SetHeader(header, value)
}

// APIKeyQuery adds an API key query parameter.
func APIKeyQuery(param, value string) fetch.BeforeHook {
	return func(_ context.Context, req *fetch.RequestConfig) (*fetch.RequestConfig, error) {
		return req.Clone().SetQueryParam(param, value), nil
	}
}
