// Package config handles configuration loading and management for fetchwrap.
//
// It provides functionality for:
//   - Loading configuration from .fetchwrap.yaml, fetchwrap.yaml or .fetchwrap.json
//   - FETCHWRAP_* environment overrides
//   - Default configuration values
//   - Writing a starter config file
package config
