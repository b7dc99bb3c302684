package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/fetchwrap/packages/fetch"
	"github.com/abdul-hamid-achik/fetchwrap/packages/history"
	"github.com/abdul-hamid-achik/fetchwrap/packages/hooks"
	"github.com/tidwall/gjson"
)

// JSONOutput is the envelope written for one response.
type JSONOutput struct {
	Request  JSONRequest  `json:"request"`
	Response JSONResponse `json:"response"`
	Query    *JSONQuery   `json:"query,omitempty"`
	Time     string       `json:"time"`
}

// JSONRequest represents request details
type JSONRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// JSONResponse represents response details. Body holds the decoded JSON
// value when the body is JSON, otherwise a string.
type JSONResponse struct {
	StatusCode int               `json:"statusCode"`
	Status     string            `json:"status"`
	Headers    map[string]string `json:"headers,omitempty"`
	Duration   float64           `json:"duration"`
	Body       any               `json:"body,omitempty"`
}

// JSONQuery is the result of a gjson query on the body.
type JSONQuery struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
	Value  any    `json:"value"`
}

// JSONLatency summarises latency in milliseconds.
type JSONLatency struct {
	Count        int64   `json:"count"`
	ClientErrors int64   `json:"clientErrors"`
	ServerErrors int64   `json:"serverErrors"`
	Min          float64 `json:"min"`
	Mean         float64 `json:"mean"`
	P50          float64 `json:"p50"`
	P95          float64 `json:"p95"`
	P99          float64 `json:"p99"`
	Max          float64 `json:"max"`
}

// JSONRecording is one history entry.
type JSONRecording struct {
	ID         int64   `json:"id"`
	Time       string  `json:"time"`
	Method     string  `json:"method"`
	URL        string  `json:"url"`
	StatusCode int     `json:"statusCode"`
	Duration   float64 `json:"duration"`
	Truncated  bool    `json:"truncated,omitempty"`
}

// JSONFormatter writes one indented JSON document per call.
type JSONFormatter struct {
	writer io.Writer
	query  string
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func JSONWithQuery(q string) JSONOption {
	return func(f *JSONFormatter) {
		f.query = q
	}
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func (f *JSONFormatter) FormatResponse(resp *fetch.Response, req *fetch.RequestConfig) error {
	out := JSONOutput{
		Request: JSONRequest{
			Method:  req.Method,
			URL:     resp.URL,
			Headers: hooks.RedactHeaders(req.Headers),
		},
		Response: JSONResponse{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Headers:    resp.Headers,
			Duration:   ms(resp.Duration),
			Body:       bodyValue(resp.Body),
		},
		Time: time.Now().Format(time.RFC3339),
	}

	if f.query != "" {
		result := resp.Get(f.query)
		out.Query = &JSONQuery{
			Path:   f.query,
			Exists: result.Exists(),
			Value:  result.Value(),
		}
	}

	return f.encode(out)
}

func bodyValue(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	if gjson.ValidBytes(body) {
		return json.RawMessage(body)
	}
	return string(body)
}

// FormatLatency writes the summary as its own document.
func (f *JSONFormatter) FormatLatency(s hooks.LatencySnapshot) {
	if s.Count == 0 {
		return
	}
	_ = f.encode(map[string]JSONLatency{"latency": {
		Count:        s.Count,
		ClientErrors: s.ClientErrors,
		ServerErrors: s.ServerErrors,
		Min:          ms(s.Min),
		Mean:         ms(s.Mean),
		P50:          ms(s.P50),
		P95:          ms(s.P95),
		P99:          ms(s.P99),
		Max:          ms(s.Max),
	}})
}

func (f *JSONFormatter) FormatHistory(recordings []*history.Recording) error {
	out := make([]JSONRecording, 0, len(recordings))
	for _, r := range recordings {
		out = append(out, JSONRecording{
			ID:         r.ID,
			Time:       r.Timestamp.Format(time.RFC3339),
			Method:     r.Method,
			URL:        r.URL,
			StatusCode: r.StatusCode,
			Duration:   ms(r.Duration),
			Truncated:  r.Truncated,
		})
	}
	return f.encode(out)
}

func (f *JSONFormatter) FormatError(err error) {
	_ = f.encode(map[string]string{"error": err.Error()})
}

func (f *JSONFormatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
