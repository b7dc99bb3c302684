package cmd

import (
	"errors"

	"github.com/abdul-hamid-achik/fetchwrap/packages/fetch"
)

// Exit codes for fetchwrap CLI
const (
	// ExitSuccess indicates the request completed
	ExitSuccess = 0

	// ExitRequestFailure indicates a non-2xx response with --fail
	ExitRequestFailure = 1

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries the exit code for err.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func configError(err error) error { return withCode(ExitConfigError, err) }

func usageError(err error) error { return withCode(ExitUsageError, err) }

// requestError classifies an error returned by Client.Request.
func requestError(err error) error {
	if err == nil {
		return nil
	}
	var se *fetch.StatusError
	switch {
	case errors.As(err, &se):
		return withCode(ExitRequestFailure, err)
	case errors.Is(err, fetch.ErrInvalidURL):
		return usageError(err)
	default:
		return withCode(ExitNetworkError, err)
	}
}

// exitCode maps err to a process exit code. Errors that were not classified
// come from cobra's own argument and flag parsing.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitUsageError
}
