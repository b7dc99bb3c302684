// Package hooks provides ready-made before and after hooks for fetch.Client.
//
// Before hooks:
//   - SetHeader, SetHeaders: static headers
//   - BasicAuth, BearerToken, APIKey, APIKeyQuery: authentication
//   - RequestID: uuid request ids
//   - RateLimit: token bucket throttling
//   - LogRequest: structured request logging
//
// After hooks:
//   - LogResponse: structured response logging
//   - RequireSuccess: turn non-2xx responses into errors
//   - Latency: HDR histogram of response times
//   - Capture: extract values from responses for later requests
//
// Before hooks never modify the config they receive; they return a copy.
package hooks
