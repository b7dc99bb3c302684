package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/fetchwrap/packages/fetch"
	"github.com/abdul-hamid-achik/fetchwrap/packages/history"
	"github.com/abdul-hamid-achik/fetchwrap/packages/hooks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestJSONFormatter_Response(t *testing.T) {
	var buf bytes.Buffer
	resp, req := sampleResponse()
	req.SetHeader("Authorization", "Bearer secret")

	require.NoError(t, NewJSONFormatter(JSONWithWriter(&buf)).FormatResponse(resp, req))

	require.True(t, json.Valid(buf.Bytes()))
	doc := gjson.ParseBytes(buf.Bytes())
	assert.Equal(t, "GET", doc.Get("request.method").String())
	assert.Equal(t, "[REDACTED]", doc.Get("request.headers.Authorization").String())
	assert.Equal(t, int64(200), doc.Get("response.statusCode").Int())
	assert.Equal(t, 42.0, doc.Get("response.duration").Float())
	assert.Equal(t, "ada", doc.Get("response.body.name").String())
	assert.False(t, doc.Get("query").Exists())
}

func TestJSONFormatter_TextBodyAndQuery(t *testing.T) {
	var buf bytes.Buffer
	resp := &fetch.Response{StatusCode: 200, Body: []byte("hello")}

	require.NoError(t, NewJSONFormatter(JSONWithWriter(&buf), JSONWithQuery("a.b")).
		FormatResponse(resp, fetch.DefaultRequestConfig()))

	doc := gjson.ParseBytes(buf.Bytes())
	assert.Equal(t, "hello", doc.Get("response.body").String())
	assert.Equal(t, "a.b", doc.Get("query.path").String())
	assert.False(t, doc.Get("query.exists").Bool())
}

func TestJSONFormatter_History(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewJSONFormatter(JSONWithWriter(&buf)).FormatHistory([]*history.Recording{
		{ID: 2, Method: "GET", URL: "https://x/2", StatusCode: 200, Duration: 1500 * time.Microsecond},
		{ID: 1, Method: "POST", URL: "https://x/1", StatusCode: 500, Truncated: true},
	}))

	doc := gjson.ParseBytes(buf.Bytes())
	assert.Equal(t, int64(2), doc.Get("#").Int())
	assert.Equal(t, 1.5, doc.Get("0.duration").Float())
	assert.True(t, doc.Get("1.truncated").Bool())
}

func TestJSONFormatter_LatencyAndError(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))

	f.FormatLatency(hooks.LatencySnapshot{})
	assert.Empty(t, buf.String())

	f.FormatLatency(hooks.LatencySnapshot{Count: 2, P99: 3 * time.Millisecond})
	assert.Equal(t, 3.0, gjson.Get(buf.String(), "latency.p99").Float())

	buf.Reset()
	f.FormatError(errors.New("boom"))
	assert.Equal(t, "boom", gjson.Get(buf.String(), "error").String())
}
