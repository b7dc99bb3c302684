package output

import (
	"fmt"

	"github.com/abdul-hamid-achik/fetchwrap/packages/fetch"
	"github.com/abdul-hamid-achik/fetchwrap/packages/history"
	"github.com/abdul-hamid-achik/fetchwrap/packages/hooks"
)

// Formatter writes command results.
type Formatter interface {
	FormatResponse(resp *fetch.Response, req *fetch.RequestConfig) error
	FormatLatency(s hooks.LatencySnapshot)
	FormatHistory(recordings []*history.Recording) error
	FormatError(err error)
}

// Options are shared by every formatter.
type Options struct {
	Verbose bool
	NoColor bool
	// Query is a gjson path; when set only the matching part of the body is
	// printed.
	Query string
}

// New returns the formatter for format ("console" or "json").
func New(format string, opts Options) (Formatter, error) {
	switch format {
	case "", "console":
		return NewConsoleFormatter(
			WithVerbose(opts.Verbose),
			WithNoColor(opts.NoColor),
			WithQuery(opts.Query),
		), nil
	case "json":
		return NewJSONFormatter(JSONWithQuery(opts.Query)), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}
