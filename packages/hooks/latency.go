package hooks

import (
	"context"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/abdul-hamid-achik/fetchwrap/packages/fetch"
)

const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
)

// Latency collects response times in an HDR histogram. It is safe for
// concurrent use.
type Latency struct {
	mu           sync.Mutex
	histogram    *hdrhistogram.Histogram
	clientErrors int64
	serverErrors int64
}

// LatencySnapshot is a point-in-time summary of a Latency collector.
type LatencySnapshot struct {
	Count        int64
	ClientErrors int64
	ServerErrors int64
	Min          time.Duration
	Max          time.Duration
	Mean         time.Duration
	P50          time.Duration
	P95          time.Duration
	P99          time.Duration
}

func NewLatency() *Latency {
	return &Latency{
		// 1us to 60s, 3 significant digits
		histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, 3),
	}
}

// Hook returns an after hook that records every response.
func (l *Latency) Hook() fetch.AfterHook {
	return func(_ context.Context, resp *fetch.Response, _ *fetch.RequestConfig) (*fetch.Response, error) {
		l.Record(resp.Duration, resp.StatusCode)
		return resp, nil
	}
}

// Record adds one observation. Durations are clamped to [1us, 60s].
func (l *Latency) Record(d time.Duration, status int) {
	us := d.Microseconds()
	if us < minLatencyUs {
		us = minLatencyUs
	}
	if us > maxLatencyUs {
		us = maxLatencyUs
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_ = l.histogram.RecordValue(us)
	switch {
	case status >= 500:
		l.serverErrors++
	case status >= 400:
		l.clientErrors++
	}
}

func (l *Latency) Snapshot() LatencySnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	h := l.histogram
	if h.TotalCount() == 0 {
		return LatencySnapshot{}
	}

	us := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }

	return LatencySnapshot{
		Count:        h.TotalCount(),
		ClientErrors: l.clientErrors,
		ServerErrors: l.serverErrors,
		Min:          us(h.Min()),
		Max:          us(h.Max()),
		Mean:         time.Duration(h.Mean() * float64(time.Microsecond)),
		P50:          us(h.ValueAtQuantile(50)),
		P95:          us(h.ValueAtQuantile(95)),
		P99:          us(h.ValueAtQuantile(99)),
	}
}

func (l *Latency) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.histogram.Reset()
	l.clientErrors = 0
	l.serverErrors = 0
}
