// Package domainerrors provides coded errors for the service layer.
//
// Stores return infrastructure sentinels (pkg/platform/sentinel); services
// translate them into coded errors so transports can map outcomes to status
// codes without string matching. Codes are part of the API contract.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	// CodeInvalidInput marks malformed input caught before any side effect.
	CodeInvalidInput Code = "invalid_input"
	// CodeForbidden marks an authorization failure. Never retried.
	CodeForbidden Code = "forbidden"
	// CodeNotFound marks a missing entity.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a lost concurrent-resolution race: the entity is no
	// longer in the state the caller observed.
	CodeConflict Code = "conflict"
	// CodeStaleSelection marks a transfer item set that no longer satisfies
	// its preconditions at resolution time.
	CodeStaleSelection Code = "stale_selection"
	// CodeInvariantViolation marks a broken domain invariant.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeUnavailable marks a temporarily unreachable dependency.
	CodeUnavailable Code = "unavailable"
	// CodeInternal marks an unexpected failure; retryability is defined by
	// the operation contract, not the code.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. It wraps an optional cause so errors.Is
// chains keep working while the code stays stable across layers.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
	}
	return false
}

// CodeOf returns the outermost code on err, or CodeInternal when err carries
// no code.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to its HTTP status for transport envelopes.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeInvariantViolation:
		return http.StatusBadRequest
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeStaleSelection:
		return http.StatusUnprocessableEntity
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
