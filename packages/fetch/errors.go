package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrHookRequired is returned by Use when the hook is nil.
	ErrHookRequired = errors.New("function required")

	// ErrInvalidPipeline is returned by Use for an unknown pipeline name.
	ErrInvalidPipeline = errors.New(`valid pipeline values are "before" or "after"`)

	// ErrHookType is returned by Use when the hook does not fit the pipeline.
	ErrHookType = errors.New("hook type does not match pipeline")

	// ErrInvalidURL is returned when no request URL can be built.
	ErrInvalidURL = errors.New("invalid URL")
)

// URLError reports an absolute URL that could not be parsed.
type URLError struct {
	URL string
	Err error
}

func (e *URLError) Error() string {
	return fmt.Sprintf("invalid URL %q: %v", e.URL, e.Err)
}

func (e *URLError) Unwrap() []error {
	return []error{ErrInvalidURL, e.Err}
}

// StatusError is returned for responses outside the 2xx range when the
// caller asked for it (see hooks.RequireSuccess).
type StatusError struct {
	StatusCode int
	Status     string
	URL        string
	Body       []byte
}

func (e *StatusError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d", e.StatusCode)
	}
	if e.URL == "" {
		return "unexpected status " + status
	}
	return fmt.Sprintf("unexpected status %s from %s", status, e.URL)
}
