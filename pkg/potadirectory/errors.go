package potadirectory

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies directory fetch failures at the collaborator
// boundary.
type ErrorKind string

const (
	// ErrKindTimeout indicates the wall-clock timeout elapsed or the
	// caller's context was cancelled.
	ErrKindTimeout ErrorKind = "TIMEOUT"

	// ErrKindNetwork indicates a transport or HTTP-status failure.
	ErrKindNetwork ErrorKind = "NETWORK_ERROR"

	// ErrKindDecode indicates a response body that could not be parsed
	// or failed validation.
	ErrKindDecode ErrorKind = "DECODE_ERROR"
)

// FetchError is a classified directory client error.
type FetchError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Op, e.Err.Error())
}

// Unwrap returns the underlying error for error chain inspection.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// classify wraps err according to how the request failed.
func classify(op string, err error) *FetchError {
	kind := ErrKindNetwork
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		kind = ErrKindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = ErrKindTimeout
	}
	return &FetchError{Kind: kind, Op: op, Err: err}
}

// IsTimeout returns true if the error is a timeout outcome.
func IsTimeout(err error) bool {
	var e *FetchError
	if errors.As(err, &e) {
		return e.Kind == ErrKindTimeout
	}
	return false
}

// IsDecode returns true if the error is a decode or validation failure.
func IsDecode(err error) bool {
	var e *FetchError
	if errors.As(err, &e) {
		return e.Kind == ErrKindDecode
	}
	return false
}
