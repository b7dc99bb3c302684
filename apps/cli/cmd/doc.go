// Package cmd implements the fetchwrap CLI commands using Cobra.
//
// Available commands:
//   - get, post, put, patch, delete: Send a request with that method
//   - request: Send a request with any method (-X)
//   - history: Show or clear recorded requests
//   - init: Write a starter .fetchwrap.yaml
//   - version: Show fetchwrap version information
//
// Every request goes through the same hook pipeline: configured headers,
// request ids, rate limiting, logging, history and --fail.
package cmd
