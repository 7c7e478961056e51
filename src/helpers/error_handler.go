package helpers

import (
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type BenchmarkServerError struct {
	Message string
	Cause   error
}

func (e *BenchmarkServerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BenchmarkServerError) Unwrap() error {
	return e.Cause
}

// ConnectionError is a transport-level failure on the live stream.
// It is never fatal; the supervisor backs off and retries.
type ConnectionError struct{ BenchmarkServerError }

// FetchError is a single failed historical/quote call. It is logged and
// swallowed at the resolver so stale data can still be served.
type FetchError struct{ BenchmarkServerError }

// DatabaseError is a row-level persistence failure.
type DatabaseError struct{ BenchmarkServerError }

// ValidationError is a client-input error (unknown period or interval),
// rejected before any fetch is attempted.
type ValidationError struct{ BenchmarkServerError }

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

func NewConnectionError(message string, cause error) *ConnectionError {
	return &ConnectionError{BenchmarkServerError{Message: message, Cause: cause}}
}

func NewFetchError(message string, cause error) *FetchError {
	return &FetchError{BenchmarkServerError{Message: message, Cause: cause}}
}

func NewDatabaseError(message string, cause error) *DatabaseError {
	return &DatabaseError{BenchmarkServerError{Message: message, Cause: cause}}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{BenchmarkServerError{Message: message}}
}

// -----------------------------------------------------------------------------
// Type checks
// -----------------------------------------------------------------------------

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}
