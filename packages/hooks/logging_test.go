package hooks

import (
	"context"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/fetchwrap/packages/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedactHeaders(t *testing.T) {
	in := map[string]string{
		"authorization": "Bearer x",
		"X-API-KEY":     "k",
		"Accept":        "application/json",
	}

	out := RedactHeaders(in)

	assert.Equal(t, "[REDACTED]", out["authorization"])
	assert.Equal(t, "[REDACTED]", out["X-API-KEY"])
	assert.Equal(t, "application/json", out["Accept"])
	assert.Equal(t, "Bearer x", in["authorization"])
}

func TestLoggingHooks(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	rec := newRecorder(&fetch.Response{StatusCode: 404, Duration: 12 * time.Millisecond})
	client := newClient(rec,
		fetch.WithBefore(SetHeader("Authorization", "Bearer secret"), LogRequest(logger)),
		fetch.WithAfter(LogResponse(logger)),
	)

	_, err := client.Get(context.Background(), "/missing")
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "request", entries[0].Message)
	headers := entries[0].ContextMap()["headers"].(map[string]string)
	assert.Equal(t, "[REDACTED]", headers["Authorization"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	fields := entries[1].ContextMap()
	assert.Equal(t, int64(404), fields["status"])
	assert.Equal(t, "https://api.example.com/missing", fields["url"])
}

func TestLogResponse_InfoOnSuccess(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	_, err := LogResponse(zap.New(core))(context.Background(),
		&fetch.Response{StatusCode: 200}, fetch.DefaultRequestConfig())

	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.InfoLevel).Len())
}
