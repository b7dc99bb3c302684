package output

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/fetchwrap/packages/fetch"
	"github.com/abdul-hamid-achik/fetchwrap/packages/history"
	"github.com/abdul-hamid-achik/fetchwrap/packages/hooks"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResponse() (*fetch.Response, *fetch.RequestConfig) {
	resp := &fetch.Response{
		URL:        "https://api.example.com/users/1",
		StatusCode: 200,
		Status:     "200 OK",
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       []byte(`{"id":1,"name":"ada","tags":["x"]}`),
		Duration:   42 * time.Millisecond,
	}
	req := fetch.DefaultRequestConfig()
	return resp, req
}

func newConsole(buf *bytes.Buffer, opts ...ConsoleOption) *ConsoleFormatter {
	return NewConsoleFormatter(append([]ConsoleOption{WithWriter(buf), WithNoColor(true)}, opts...)...)
}

func TestConsoleFormatter_Response(t *testing.T) {
	var buf bytes.Buffer
	resp, req := sampleResponse()

	require.NoError(t, newConsole(&buf).FormatResponse(resp, req))

	out := buf.String()
	assert.Contains(t, out, "200 OK (42ms) GET https://api.example.com/users/1")
	assert.Contains(t, out, "\"name\": \"ada\"")
	assert.NotContains(t, out, "Content-Type")
}

func TestConsoleFormatter_Verbose(t *testing.T) {
	var buf bytes.Buffer
	resp, req := sampleResponse()

	require.NoError(t, newConsole(&buf, WithVerbose(true)).FormatResponse(resp, req))

	out := buf.String()
	assert.Contains(t, out, "> Accept: application/json")
	assert.Contains(t, out, "< Content-Type: application/json")
}

func TestConsoleFormatter_VerboseRedactsRequestHeaders(t *testing.T) {
	var buf bytes.Buffer
	resp, req := sampleResponse()
	req.SetHeader("Authorization", "Bearer s3cret")

	require.NoError(t, newConsole(&buf, WithVerbose(true)).FormatResponse(resp, req))

	out := buf.String()
	assert.Contains(t, out, "> Authorization: [REDACTED]")
	assert.NotContains(t, out, "s3cret")
	assert.Equal(t, "Bearer s3cret", req.Headers["Authorization"])
}

func TestConsoleFormatter_PlainBody(t *testing.T) {
	var buf bytes.Buffer
	resp := &fetch.Response{StatusCode: 503, Body: []byte("down for maintenance")}

	require.NoError(t, newConsole(&buf).FormatResponse(resp, fetch.DefaultRequestConfig()))

	assert.Contains(t, buf.String(), "503 (0ms)")
	assert.Contains(t, buf.String(), "down for maintenance")
}

func TestConsoleFormatter_Query(t *testing.T) {
	resp, req := sampleResponse()

	var buf bytes.Buffer
	require.NoError(t, newConsole(&buf, WithQuery("name")).FormatResponse(resp, req))
	assert.Equal(t, "ada\n", buf.String())

	buf.Reset()
	require.NoError(t, newConsole(&buf, WithQuery("tags")).FormatResponse(resp, req))
	assert.Contains(t, buf.String(), `"x"`)

	buf.Reset()
	err := newConsole(&buf, WithQuery("missing")).FormatResponse(resp, req)
	assert.Error(t, err)
}

func TestConsoleFormatter_Latency(t *testing.T) {
	s := hooks.LatencySnapshot{Count: 3, Min: time.Millisecond, P50: 2 * time.Millisecond, Max: 5 * time.Millisecond}

	var buf bytes.Buffer
	newConsole(&buf).FormatLatency(s)
	assert.Empty(t, buf.String())

	newConsole(&buf, WithVerbose(true)).FormatLatency(s)
	assert.Contains(t, buf.String(), "n=3 min=1ms p50=2ms")
}

func TestConsoleFormatter_History(t *testing.T) {
	var buf bytes.Buffer
	f := newConsole(&buf)

	require.NoError(t, f.FormatHistory(nil))
	assert.Contains(t, buf.String(), "No history recorded.")

	buf.Reset()
	require.NoError(t, f.FormatHistory([]*history.Recording{{
		ID:         7,
		Timestamp:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Method:     "DELETE",
		URL:        "https://api.example.com/users/7",
		StatusCode: 204,
		Duration:   15 * time.Millisecond,
	}}))

	out := buf.String()
	assert.Contains(t, out, "METHOD")
	assert.Contains(t, out, "2024-05-01 12:00:00")
	assert.Contains(t, out, "DELETE")
	assert.Contains(t, out, "204")
	assert.Contains(t, out, "15ms")
}

func TestConsoleFormatter_Error(t *testing.T) {
	var buf bytes.Buffer
	newConsole(&buf).FormatError(errors.New("connection refused"))
	assert.Equal(t, "Error: connection refused\n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
}

func TestNew(t *testing.T) {
	f, err := New("", Options{})
	require.NoError(t, err)
	assert.IsType(t, &ConsoleFormatter{}, f)

	f, err = New("json", Options{Query: "id"})
	require.NoError(t, err)
	assert.IsType(t, &JSONFormatter{}, f)

	_, err = New("xml", Options{})
	assert.Error(t, err)
}

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func TestConsoleFormatter_HistoryAlignedWithColor(t *testing.T) {
	var buf bytes.Buffer
	f := newConsole(&buf)
	prev := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = prev })

	require.NoError(t, f.FormatHistory([]*history.Recording{
		{ID: 1, Method: "GET", URL: "https://a.example.com", StatusCode: 200, Duration: time.Millisecond},
		{ID: 12, Method: "DELETE", URL: "https://b.example.com", StatusCode: 503, Duration: 1500 * time.Millisecond},
	}))

	out := buf.String()
	require.Contains(t, out, "\x1b[")

	lines := strings.Split(strings.TrimRight(ansiEscape.ReplaceAllString(out, ""), "\n"), "\n")
	require.Len(t, lines, 3)
	col := strings.Index(lines[0], "URL")
	require.Positive(t, col)
	assert.Equal(t, col, strings.Index(lines[1], "https://a.example.com"))
	assert.Equal(t, col, strings.Index(lines[2], "https://b.example.com"))
	assert.Equal(t, strings.Index(lines[0], "STATUS"), strings.Index(lines[2], "503"))
}
