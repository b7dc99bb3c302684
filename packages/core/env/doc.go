// Package env loads .env files and expands ${VAR} references in
// configuration values.
package env
