// Package domainerrors carries the error taxonomy the core surfaces to
// callers. Store and infrastructure layers return sentinel errors
// (pkg/platform/sentinel); services translate those into coded domain errors
// here so transports can map codes to responses without string matching.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation marks malformed input that never reached a state change,
	// e.g. a senior flag without a qualifying age or a flagged attribute with
	// no evidence reference.
	CodeValidation Code = "validation"
	// CodeInvalidInput marks input rejected at a parse boundary.
	CodeInvalidInput Code = "invalid_input"
	// CodeIneligible marks a family that fails the classification or type gate
	// for a schedule.
	CodeIneligible Code = "ineligible"
	// CodeDuplicateClaim marks a claim attempt for a (family, schedule) pair
	// that already has a non-rejected claim. Surfaced distinctly so callers
	// can render "already claimed".
	CodeDuplicateClaim Code = "duplicate_claim"
	// CodeNotFound marks an absent entity. Cross-tenant access reports the
	// same code so existence is not leaked across barangays.
	CodeNotFound Code = "not_found"
	// CodeInvalidTransition marks a state machine transition attempted from a
	// state that does not permit it. The message carries the current state.
	CodeInvalidTransition Code = "invalid_transition"
	// CodeForbidden marks an actor that lacks the capability for an operation.
	CodeForbidden Code = "forbidden"
	// CodeConflict marks a uniqueness violation outside the claim path.
	CodeConflict Code = "conflict"
	// CodeInvariantViolation marks a model constructor rejecting bad state.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeTimeout marks a context deadline or cancellation.
	CodeTimeout Code = "timeout"
	// CodeInternal marks unexpected infrastructure failure.
	CodeInternal Code = "internal"
)

// Error is the concrete coded error type.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf returns a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates a cause with a code and message. A nil cause yields nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// Is reports whether err is (or wraps) a coded domain error.
func Is(err error) bool {
	var de *Error
	return errors.As(err, &de)
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the code of err, or CodeInternal when err is not a domain
// error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
