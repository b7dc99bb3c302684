// Package fetch provides a small HTTP request helper built around two ordered
// hook pipelines.
//
// A Client holds a base URL and the before/after pipelines. Every call:
//   - Merges the caller's RequestConfig over DefaultRequestConfig (shallow)
//   - Folds the request through the before hooks, in registration order
//   - Resolves the target URL against the base URL
//   - Dispatches through the configured Transport
//   - Folds the response through the after hooks, in registration order
//
// Errors from hooks, URL resolution and the transport are returned unchanged.
// There are no retries.
package fetch
