package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")

	// Storage failures (connectivity, constraint violations).
	ErrStore = errors.New("store error")

	// Completion call failures.
	ErrTransport = errors.New("completion transport error")
	ErrUpstream  = errors.New("completion upstream error")
	ErrContent   = errors.New("completion content error")
)

// StoreError wraps a failed storage operation.
type StoreError struct {
	Op  string
	Err error
}

func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }
func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// UpstreamError is returned when the completion API answers with a non-2xx status.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s http %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s http %d", e.Provider, e.StatusCode)
}
func (e *UpstreamError) Unwrap() error { return e.Err }
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// ErrorKind maps an error to a short label for logs and metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStore):
		return "store"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	case errors.Is(err, ErrContent):
		return "content"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	default:
		return "unknown"
	}
}
