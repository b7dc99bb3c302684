package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/fetchwrap/packages/fetch"
	"github.com/abdul-hamid-achik/fetchwrap/packages/history"
	"github.com/abdul-hamid-achik/fetchwrap/packages/hooks"
	"github.com/fatih/color"
	"github.com/tidwall/gjson"
)

// truncate shortens s to maxLen runes, marking the cut with "...".
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
	query   string
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// WithQuery prints only the body value at the gjson path q.
func WithQuery(q string) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.query = q
	}
}

func statusColor(code int) *color.Color {
	switch {
	case code >= 500:
		return color.New(color.FgRed, color.Bold)
	case code >= 400:
		return color.New(color.FgYellow, color.Bold)
	case code >= 300:
		return color.New(color.FgBlue, color.Bold)
	default:
		return color.New(color.FgGreen, color.Bold)
	}
}

func (f *ConsoleFormatter) FormatResponse(resp *fetch.Response, req *fetch.RequestConfig) error {
	if f.query != "" {
		return f.formatQuery(resp)
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	status := resp.Status
	if status == "" {
		status = fmt.Sprintf("%d", resp.StatusCode)
	}
	fmt.Fprintf(f.writer, "%s %s %s\n",
		statusColor(resp.StatusCode).Sprint(status),
		cyan(fmt.Sprintf("(%dms)", resp.DurationMs())),
		faint(req.Method+" "+resp.URL),
	)

	if f.verbose {
		fmt.Fprintln(f.writer)
		f.writeHeaders("> ", hooks.RedactHeaders(req.Headers))
		f.writeHeaders("< ", resp.Headers)
	}

	if len(resp.Body) > 0 {
		fmt.Fprintln(f.writer)
		fmt.Fprintln(f.writer, prettyBody(resp.Body))
	}
	return nil
}

func (f *ConsoleFormatter) formatQuery(resp *fetch.Response) error {
	result := resp.Get(f.query)
	if !result.Exists() {
		return fmt.Errorf("query %q matched nothing", f.query)
	}
	if result.Type == gjson.String {
		fmt.Fprintln(f.writer, result.String())
		return nil
	}
	fmt.Fprintln(f.writer, prettyBody([]byte(result.Raw)))
	return nil
}

func (f *ConsoleFormatter) writeHeaders(prefix string, headers map[string]string) {
	bold := color.New(color.Bold).SprintFunc()
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(f.writer, "%s%s: %s\n", prefix, bold(k), headers[k])
	}
}

// prettyBody indents JSON bodies and returns anything else unchanged.
func prettyBody(body []byte) string {
	if gjson.ValidBytes(body) {
		return strings.TrimRight(gjson.GetBytes(body, "@pretty").Raw, "\n")
	}
	return string(body)
}

// FormatLatency prints the latency summary. It only prints in verbose mode.
func (f *ConsoleFormatter) FormatLatency(s hooks.LatencySnapshot) {
	if !f.verbose || s.Count == 0 {
		return
	}
	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintf(f.writer, "\n%s n=%d min=%s p50=%s p95=%s p99=%s max=%s\n",
		cyan("Latency:"), s.Count, s.Min, s.P50, s.P95, s.P99, s.Max)
}

func (f *ConsoleFormatter) FormatHistory(recordings []*history.Recording) error {
	if len(recordings) == 0 {
		fmt.Fprintln(f.writer, "No history recorded.")
		return nil
	}

	bold := color.New(color.Bold).SprintFunc()
	t := newTable(bold, "ID", "TIME", "METHOD", "STATUS", "DURATION", "URL")
	for _, r := range recordings {
		status := statusColor(r.StatusCode)
		t.row(
			cell{text: fmt.Sprintf("%d", r.ID)},
			cell{text: r.Timestamp.Format("2006-01-02 15:04:05")},
			cell{text: r.Method},
			cell{text: fmt.Sprintf("%d", r.StatusCode), paint: status.Sprint},
			cell{text: fmt.Sprintf("%dms", r.Duration.Milliseconds())},
			cell{text: truncate(r.URL, 80)},
		)
	}
	return t.write(f.writer)
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("fetchwrap"), version)
}
