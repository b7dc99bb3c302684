package hooks

import (
	"context"
	"errors"
	"testing"

	"github.com/abdul-hamid-achik/fetchwrap/packages/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicAuth(t *testing.T) {
	next, err := BasicAuth("user", "pass")(context.Background(), fetch.DefaultRequestConfig())

	require.NoError(t, err)
	assert.Equal(t, "Basic dXNlcjpwYXNz", next.Headers["Authorization"])
}

func TestBearerToken(t *testing.T) {
	calls := 0
	source := func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "first", nil
		}
		return "second", nil
	}

	rec := newRecorder(nil)
	client := newClient(rec, fetch.WithBefore(BearerToken(source)))
	ctx := context.Background()

	_, err := client.Get(ctx, "/a")
	require.NoError(t, err)
	assert.Equal(t, "Bearer first", rec.last().Headers["Authorization"])

	_, err = client.Get(ctx, "/b")
	require.NoError(t, err)
	assert.Equal(t, "Bearer second", rec.last().Headers["Authorization"])
}

func TestBearerToken_ReplacesExisting(t *testing.T) {
	req := &fetch.RequestConfig{Headers: map[string]string{"authorization": "Basic old"}}

	next, err := BearerToken(StaticToken("tok"))(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Authorization": "Bearer tok"}, next.Headers)
}

func TestBearerToken_SourceError(t *testing.T) {
	boom := errors.New("token expired")
	rec := newRecorder(nil)
	client := newClient(rec, fetch.WithBefore(BearerToken(func(context.Context) (string, error) {
		return "", boom
	})))

	_, err := client.Get(context.Background(), "/a")

	assert.ErrorIs(t, err, boom)
	assert.Empty(t, rec.reqs)
}

func TestAPIKey(t *testing.T) {
	ctx := context.Background()

	next, err := APIKey("X-Api-Key", "secret")(ctx, fetch.DefaultRequestConfig())
	require.NoError(t, err)
	assert.Equal(t, "secret", next.Headers["X-Api-Key"])

	next, err = APIKeyQuery("api_key", "secret")(ctx, fetch.DefaultRequestConfig())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"api_key": "secret"}, next.Query)
}
