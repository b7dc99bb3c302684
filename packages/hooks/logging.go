package hooks

import (
	"context"
	"strings"

	"github.com/abdul-hamid-achik/fetchwrap/packages/fetch"
	"go.uber.org/zap"
)

// SensitiveHeaders are redacted by RedactHeaders.
var SensitiveHeaders = []string{
	"Authorization",
	"Proxy-Authorization",
	"Cookie",
	"Set-Cookie",
	"X-Api-Key",
	"Api-Key",
}

const redacted = "[REDACTED]"

// RedactHeaders returns a copy of headers with sensitive values replaced.
func RedactHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		out[k] = v
		for _, s := range SensitiveHeaders {
			if strings.EqualFold(k, s) {
				out[k] = redacted
				break
			}
		}
	}
	return out
}

// LogRequest logs every outgoing request at debug level.
func LogRequest(logger *zap.Logger) fetch.BeforeHook {
	return func(_ context.Context, req *fetch.RequestConfig) (*fetch.RequestConfig, error) {
		logger.Debug("request",
			zap.String("method", req.Method),
			zap.Any("headers", RedactHeaders(req.Headers)),
			zap.Any("query", req.Query),
			zap.Int("body_bytes", len(req.Body)),
		)
		return req, nil
	}
}

// LogResponse logs every response: info for 1xx-3xx, warn otherwise.
func LogResponse(logger *zap.Logger) fetch.AfterHook {
	return func(_ context.Context, resp *fetch.Response, req *fetch.RequestConfig) (*fetch.Response, error) {
		fields := []zap.Field{
			zap.String("method", req.Method),
			zap.String("url", resp.URL),
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", resp.Duration),
			zap.Int("body_bytes", len(resp.Body)),
		}
		if resp.StatusCode >= 400 {
			logger.Warn("response", fields...)
		} else {
			logger.Info("response", fields...)
		}
		return resp, nil
	}
}
