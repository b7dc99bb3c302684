package hooks

import (
	"context"
	"sync"

	"github.com/abdul-hamid-achik/fetchwrap/packages/fetch"
)

// recorder is a transport that remembers what it was asked to send.
type recorder struct {
	mu   sync.Mutex
	urls []string
	reqs []*fetch.RequestConfig
	resp *fetch.Response
	err  error
}

func newRecorder(resp *fetch.Response) *recorder {
	if resp == nil {
		resp = &fetch.Response{StatusCode: 200, Status: "200 OK"}
	}
	return &recorder{resp: resp}
}

func (r *recorder) Fetch(_ context.Context, url string, req *fetch.RequestConfig) (*fetch.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, url)
	r.reqs = append(r.reqs, req)
	if r.err != nil {
		return nil, r.err
	}
	resp := *r.resp
	resp.URL = url
	return &resp, nil
}

func (r *recorder) last() *fetch.RequestConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reqs[len(r.reqs)-1]
}

func newClient(rec *recorder, opts ...fetch.Option) *fetch.Client {
	all := append([]fetch.Option{
		fetch.WithBaseURL("https://api.example.com"),
		fetch.WithTransport(rec),
	}, opts...)
	return fetch.New(all...)
}
