package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type spyCall struct {
	url string
	req *RequestConfig
}

type spyTransport struct {
	mu    sync.Mutex
	calls []spyCall
	resp  *Response
	err   error
}

func newSpy() *spyTransport {
	return &spyTransport{resp: &Response{StatusCode: 200, Status: "200 OK"}}
}

func (s *spyTransport) Fetch(_ context.Context, url string, req *RequestConfig) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, spyCall{url: url, req: req})
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func (s *spyTransport) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *spyTransport) last() spyCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

func TestNew_Defaults(t *testing.T) {
	c := New()

	assert.Equal(t, "", c.BaseURL())
	assert.Empty(t, c.Middleware().Before)
	assert.Empty(t, c.Middleware().After)
	assert.IsType(t, &HTTPTransport{}, c.transport)
}

func TestNew_BaseURLTrailingSlash(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"/api", "/api"},
		{"/api/", "/api"},
		{"https://example.com/", "https://example.com"},
		{"https://example.com/v1//", "https://example.com/v1"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			assert.Equal(t, tt.want, New(WithBaseURL(tt.base)).BaseURL())
		})
	}
}

func TestRequest_ResolvesAgainstBaseURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		url  string
		want string
	}{
		{"relative path", "/api", "resource", "/api/resource"},
		{"rooted path", "/api", "/resource", "/api/resource"},
		{"absolute base", "https://example.com/v1", "users/1", "https://example.com/v1/users/1"},
		{"absolute base trailing slash", "https://example.com/v1/", "/users", "https://example.com/v1/users"},
		{"absolute url ignores base", "/api", "https://example.com/x", "https://example.com/x"},
		{"absolute http url ignores base", "https://api.test", "http://other.test/y", "http://other.test/y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := newSpy()
			c := New(WithBaseURL(tt.base), WithTransport(spy))

			_, err := c.Get(context.Background(), tt.url)

			require.NoError(t, err)
			require.Equal(t, 1, spy.count())
			assert.Equal(t, tt.want, spy.last().url)
		})
	}
}

func TestRequest_RelativeURLWithoutBase(t *testing.T) {
	spy := newSpy()
	c := New(WithTransport(spy))

	_, err := c.Get(context.Background(), "users")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidURL)
	assert.Equal(t, 0, spy.count())
}

func TestRequest_Defaults(t *testing.T) {
	spy := newSpy()
	c := New(WithBaseURL("https://example.com"), WithTransport(spy))

	_, err := c.Request(context.Background(), "/x", nil)
	require.NoError(t, err)

	req := spy.last().req
	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, CacheNoCache, req.Cache)
	assert.Equal(t, map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}, req.Headers)
	assert.Empty(t, req.Body)
}

func TestRequest_HeadersReplacedNotMerged(t *testing.T) {
	spy := newSpy()
	c := New(WithBaseURL("https://example.com"), WithTransport(spy))

	_, err := c.Request(context.Background(), "/x", &RequestConfig{
		Headers: map[string]string{"X-Token": "abc"},
	})
	require.NoError(t, err)

	req := spy.last().req
	assert.Equal(t, map[string]string{"X-Token": "abc"}, req.Headers)
	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, CacheNoCache, req.Cache)
}

func TestRequest_BeforeHooksRunInOrder(t *testing.T) {
	spy := newSpy()
	c := New(WithBaseURL("https://example.com"), WithTransport(spy))

	var mu sync.Mutex
	var order []string
	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}

	h1 := BeforeHook(func(_ context.Context, req *RequestConfig) (*RequestConfig, error) {
		record("h1")
		next := req.Clone()
		next.SetHeader("X-Step", "1")
		return next, nil
	})
	h2 := BeforeHook(func(_ context.Context, req *RequestConfig) (*RequestConfig, error) {
		record("h2")
		assert.Equal(t, "1", req.Headers["X-Step"])
		next := req.Clone()
		next.SetHeader("X-Step", req.Headers["X-Step"]+"2")
		return next, nil
	})

	require.NoError(t, c.Use(h1, "before"))
	require.NoError(t, c.Use(h2, "before"))

	for i := 0; i < 3; i++ {
		_, err := c.Get(context.Background(), "/x")
		require.NoError(t, err)
		assert.Equal(t, "12", spy.last().req.Headers["X-Step"])
	}

	assert.Equal(t, []string{"h1", "h2", "h1", "h2", "h1", "h2"}, order)
}

func TestRequest_BeforeHookNilKeepsRequest(t *testing.T) {
	spy := newSpy()
	c := New(
		WithBaseURL("https://example.com"),
		WithTransport(spy),
		WithBefore(func(_ context.Context, req *RequestConfig) (*RequestConfig, error) {
			req.SetHeader("X-Mutated", "yes")
			return nil, nil
		}),
	)

	_, err := c.Get(context.Background(), "/x")

	require.NoError(t, err)
	assert.Equal(t, "yes", spy.last().req.Headers["X-Mutated"])
}

func TestRequest_BeforeHookErrorSkipsTransport(t *testing.T) {
	spy := newSpy()
	hookErr := errors.New("token refresh failed")
	var secondRan bool

	c := New(WithBaseURL("https://example.com"), WithTransport(spy))
	require.NoError(t, c.UseBefore(func(context.Context, *RequestConfig) (*RequestConfig, error) {
		return nil, hookErr
	}))
	require.NoError(t, c.UseBefore(func(_ context.Context, req *RequestConfig) (*RequestConfig, error) {
		secondRan = true
		return req, nil
	}))

	resp, err := c.Get(context.Background(), "/x")

	assert.Nil(t, resp)
	assert.Same(t, hookErr, err)
	assert.False(t, secondRan)
	assert.Equal(t, 0, spy.count())
}

func TestRequest_EmptyAfterPipelineReturnsTransportResponse(t *testing.T) {
	spy := newSpy()
	c := New(WithBaseURL("https://example.com"), WithTransport(spy))

	resp, err := c.Get(context.Background(), "/x")

	require.NoError(t, err)
	assert.Same(t, spy.resp, resp)
}

func TestRequest_NilTransportResponse(t *testing.T) {
	transport := TransportFunc(func(context.Context, string, *RequestConfig) (*Response, error) {
		return nil, nil
	})
	c := New(WithBaseURL("https://example.com"), WithTransport(transport))

	var resp *Response
	var err error
	assert.NotPanics(t, func() {
		resp, err = c.Get(context.Background(), "/x")
	})

	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestRequest_AfterHooksChain(t *testing.T) {
	spy := newSpy()
	c := New(WithBaseURL("https://example.com"), WithTransport(spy))

	require.NoError(t, c.UseAfter(func(_ context.Context, resp *Response, req *RequestConfig) (*Response, error) {
		assert.Equal(t, "DELETE", req.Method)
		return &Response{StatusCode: resp.StatusCode, Body: []byte("first")}, nil
	}))
	require.NoError(t, c.UseAfter(func(_ context.Context, resp *Response, _ *RequestConfig) (*Response, error) {
		return &Response{StatusCode: resp.StatusCode, Body: append(resp.Body, []byte("+second")...)}, nil
	}))

	resp, err := c.Delete(context.Background(), "/x")

	require.NoError(t, err)
	assert.Equal(t, "first+second", resp.BodyString())
	assert.Equal(t, 200, resp.StatusCode)
}

func TestRequest_AfterHookError(t *testing.T) {
	spy := newSpy()
	hookErr := errors.New("bad response")
	c := New(
		WithBaseURL("https://example.com"),
		WithTransport(spy),
		WithAfter(func(context.Context, *Response, *RequestConfig) (*Response, error) {
			return nil, hookErr
		}),
	)

	resp, err := c.Get(context.Background(), "/x")

	assert.Nil(t, resp)
	assert.Same(t, hookErr, err)
	assert.Equal(t, 1, spy.count())
}

func TestRequest_TransportErrorReturnedUnchanged(t *testing.T) {
	spy := newSpy()
	spy.err = errors.New("connection refused")
	var afterRan bool
	c := New(
		WithBaseURL("https://example.com"),
		WithTransport(spy),
		WithAfter(func(_ context.Context, resp *Response, _ *RequestConfig) (*Response, error) {
			afterRan = true
			return resp, nil
		}),
	)

	_, err := c.Get(context.Background(), "/x")

	assert.Same(t, spy.err, err)
	assert.False(t, afterRan)
}

func TestConvenienceMethods(t *testing.T) {
	ctx := context.Background()
	payload := map[string]int{"a": 1}

	tests := []struct {
		name       string
		call       func(c *Client) (*Response, error)
		wantMethod string
		wantBody   string
	}{
		{"get", func(c *Client) (*Response, error) { return c.Get(ctx, "/r") }, "GET", ""},
		{"post", func(c *Client) (*Response, error) { return c.Post(ctx, "/r", payload) }, "POST", `{"a":1}`},
		{"put", func(c *Client) (*Response, error) { return c.Put(ctx, "/r", payload) }, "PUT", `{"a":1}`},
		{"patch", func(c *Client) (*Response, error) { return c.Patch(ctx, "/r", payload) }, "PATCH", `{"a":1}`},
		{"delete", func(c *Client) (*Response, error) { return c.Delete(ctx, "/r") }, "DELETE", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := newSpy()
			c := New(WithBaseURL("https://example.com"), WithTransport(spy))

			_, err := tt.call(c)

			require.NoError(t, err)
			req := spy.last().req
			assert.Equal(t, tt.wantMethod, req.Method)
			assert.Equal(t, tt.wantBody, req.Body)
			assert.Equal(t, "application/json", req.Headers["Content-Type"])
		})
	}
}

func TestPost_UnmarshalablePayload(t *testing.T) {
	spy := newSpy()
	c := New(WithBaseURL("https://example.com"), WithTransport(spy))

	_, err := c.Post(context.Background(), "/r", make(chan int))

	require.Error(t, err)
	assert.Equal(t, 0, spy.count())
}

func TestUse_NilHook(t *testing.T) {
	c := New(WithBefore(func(_ context.Context, r *RequestConfig) (*RequestConfig, error) { return r, nil }))
	var typedNil BeforeHook

	assert.ErrorIs(t, c.Use(nil, "before"), ErrHookRequired)
	assert.ErrorIs(t, c.Use(typedNil, "before"), ErrHookRequired)
	assert.ErrorIs(t, c.UseBefore(nil), ErrHookRequired)
	assert.ErrorIs(t, c.UseAfter(nil), ErrHookRequired)
	assert.Len(t, c.Middleware().Before, 1)
	assert.Empty(t, c.Middleware().After)
}

func TestUse_InvalidPipeline(t *testing.T) {
	c := New()
	hook := BeforeHook(func(_ context.Context, r *RequestConfig) (*RequestConfig, error) { return r, nil })

	err := c.Use(hook, "sideways")

	assert.ErrorIs(t, err, ErrInvalidPipeline)
	assert.Empty(t, c.Middleware().Before)
	assert.Empty(t, c.Middleware().After)
}

func TestUse_HookTypeMismatch(t *testing.T) {
	c := New()
	before := BeforeHook(func(_ context.Context, r *RequestConfig) (*RequestConfig, error) { return r, nil })

	assert.ErrorIs(t, c.Use(before, "after"), ErrHookType)
	assert.ErrorIs(t, c.Use("not a func", "before"), ErrHookType)
	assert.Empty(t, c.Middleware().Before)
	assert.Empty(t, c.Middleware().After)
}

func TestUse_AcceptsPlainFuncs(t *testing.T) {
	c := New()

	err := c.Use(func(_ context.Context, r *RequestConfig) (*RequestConfig, error) { return r, nil }, "before")
	require.NoError(t, err)

	err = c.Use(func(_ context.Context, resp *Response, _ *RequestConfig) (*Response, error) { return resp, nil }, "after")
	require.NoError(t, err)

	assert.Len(t, c.Middleware().Before, 1)
	assert.Len(t, c.Middleware().After, 1)
}

func TestMiddleware_ReturnsCopy(t *testing.T) {
	c := New(WithBefore(func(_ context.Context, r *RequestConfig) (*RequestConfig, error) { return r, nil }))

	mw := c.Middleware()
	mw.Before = append(mw.Before, nil)
	mw.Before[0] = nil

	assert.Len(t, c.Middleware().Before, 1)
	assert.NotNil(t, c.Middleware().Before[0])
}

func TestClient_ConcurrentRequestsAndRegistration(t *testing.T) {
	spy := newSpy()
	c := New(WithBaseURL("https://example.com"), WithTransport(spy))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := c.Get(context.Background(), fmt.Sprintf("/items/%d", i))
			assert.NoError(t, err)
		}(i)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.UseBefore(func(_ context.Context, r *RequestConfig) (*RequestConfig, error) {
				return r, nil
			}))
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, spy.count())
	assert.Len(t, c.Middleware().Before, 20)
}

func TestRequest_DefaultsNotShared(t *testing.T) {
	spy := newSpy()
	c := New(
		WithBaseURL("https://example.com"),
		WithTransport(spy),
		WithBefore(func(_ context.Context, r *RequestConfig) (*RequestConfig, error) {
			r.Headers["Accept"] = "text/plain"
			return r, nil
		}),
	)

	_, err := c.Get(context.Background(), "/x")
	require.NoError(t, err)

	assert.Equal(t, "application/json", DefaultRequestConfig().Headers["Accept"])
}
