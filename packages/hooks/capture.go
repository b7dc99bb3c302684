package hooks

import (
	"context"
	"fmt"
	"sync"

	"github.com/abdul-hamid-achik/fetchwrap/packages/fetch"
	"github.com/tidwall/gjson"
)

// CaptureSource says where a capture rule reads its value from.
type CaptureSource int

const (
	CaptureBody CaptureSource = iota
	CaptureHeader
	CaptureStatus
	CaptureDuration
)

// Rule names one value to capture. Path is a gjson path for CaptureBody and
// a header name for CaptureHeader.
type Rule struct {
	Name   string
	Source CaptureSource
	Path   string
}

// BodyRule captures a gjson path from the body.
func BodyRule(name, path string) Rule {
	return Rule{Name: name, Source: CaptureBody, Path: path}
}

// HeaderRule captures a response header.
func HeaderRule(name, header string) Rule {
	return Rule{Name: name, Source: CaptureHeader, Path: header}
}

// Captures stores captured values across requests. It is safe for
// concurrent use.
type Captures struct {
	mu     sync.RWMutex
	values map[string]any
}

func NewCaptures() *Captures {
	return &Captures{values: make(map[string]any)}
}

func (c *Captures) Get(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[name]
	return v, ok
}

// String returns the value formatted with %v, or "" when missing.
func (c *Captures) String(name string) string {
	v, ok := c.Get(name)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func (c *Captures) Set(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[name] = value
}

// All returns a copy of every captured value.
func (c *Captures) All() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Token returns a TokenSource reading the named capture, for use with
// BearerToken after a login request.
func (c *Captures) Token(name string) TokenSource {
	return func(context.Context) (string, error) {
		token := c.String(name)
		if token == "" {
			return "", fmt.Errorf("no captured value %q", name)
		}
		return token, nil
	}
}

// Capture returns an after hook that stores every matching rule into store.
// Rules that match nothing leave the previous value in place.
func Capture(store *Captures, rules ...Rule) fetch.AfterHook {
	return func(_ context.Context, resp *fetch.Response, _ *fetch.RequestConfig) (*fetch.Response, error) {
		extractor := NewExtractor(resp)
		for _, r := range rules {
			if value, ok := extractor.Extract(r); ok {
				store.Set(r.Name, value)
			}
		}
		return resp, nil
	}
}

// Extractor reads capture rules from one response.
type Extractor struct {
	response *fetch.Response
	bodyJSON gjson.Result
}

func NewExtractor(resp *fetch.Response) *Extractor {
	e := &Extractor{
		response: resp,
	}
	if gjson.ValidBytes(resp.Body) {
		e.bodyJSON = gjson.ParseBytes(resp.Body)
	}
	return e
}

func (e *Extractor) Extract(rule Rule) (any, bool) {
	switch rule.Source {
	case CaptureBody:
		return e.extractFromBody(rule.Path)
	case CaptureHeader:
		return e.extractFromHeader(rule.Path)
	case CaptureStatus:
		return e.response.StatusCode, true
	case CaptureDuration:
		return e.response.DurationMs(), true
	default:
		return nil, false
	}
}

func (e *Extractor) extractFromBody(path string) (any, bool) {
	if !e.bodyJSON.Exists() {
		if path == "" {
			return e.response.BodyString(), true
		}
		return nil, false
	}

	if path == "" {
		return e.bodyJSON.Value(), true
	}

	result := e.bodyJSON.Get(path)
	if !result.Exists() {
		return nil, false
	}
	return result.Value(), true
}

func (e *Extractor) extractFromHeader(name string) (any, bool) {
	value := e.response.Header(name)
	if value == "" {
		return nil, false
	}
	return value, true
}

// ExtractAll evaluates rules against resp and returns the matches by name.
func ExtractAll(resp *fetch.Response, rules []Rule) map[string]any {
	extractor := NewExtractor(resp)
	results := make(map[string]any)

	for _, r := range rules {
		if value, ok := extractor.Extract(r); ok {
			results[r.Name] = value
		}
	}

	return results
}
