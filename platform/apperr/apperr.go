// Package apperr provides standardized domain error types for the application.
// Domain services return these typed errors, and the HTTP layer maps them to
// an HTTP status plus a stable machine-readable code that clients branch on.
package apperr

import (
	"fmt"
	"net/http"
)

// Kind represents the category of error.
type Kind int

const (
	// KindUnknown is the default error kind when none is specified.
	KindUnknown Kind = iota
	// KindNotFound indicates a resource was not found.
	KindNotFound
	// KindValidation indicates invalid input data.
	KindValidation
	// KindConsentRequired indicates the attendee did not accept the data-use terms.
	KindConsentRequired
	// KindLimitReached indicates a policy cap was hit (not a defect).
	KindLimitReached
	// KindExternal indicates a downstream service failed or timed out.
	// Surfaced to the caller as retryable.
	KindExternal
	// KindConflict indicates a conflict with existing state (e.g., duplicate).
	KindConflict
	// KindInternal indicates an unexpected internal error.
	KindInternal
)

// Error is a domain error with a typed Kind for HTTP mapping.
type Error struct {
	Kind    Kind
	Message string
	Op      string      // Operation that failed (optional)
	Err     error       // Underlying error (optional)
	Details interface{} // Additional details for response (optional)
	// code overrides the kind-derived code for endpoints whose clients
	// branch on a more specific identifier (e.g. GENERATION_LIMIT).
	code string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Code returns the stable error code for this error kind.
func (e *Error) Code() string {
	if e.code != "" {
		return e.code
	}
	switch e.Kind {
	case KindNotFound:
		return "NOT_FOUND"
	case KindValidation:
		return "INVALID_INPUT"
	case KindConsentRequired:
		return "CONSENT_REQUIRED"
	case KindLimitReached:
		return "LIMIT_REACHED"
	case KindExternal:
		return "EXTERNAL_FAILURE"
	case KindConflict:
		return "CONFLICT"
	case KindInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// HTTPStatus returns the appropriate HTTP status code for this error kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindConsentRequired:
		return http.StatusBadRequest
	case KindLimitReached:
		return http.StatusTooManyRequests
	case KindExternal:
		return http.StatusBadGateway
	case KindConflict:
		return http.StatusConflict
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// New creates a new domain error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithOp returns the error with the operation set.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// WithDetails returns the error with additional details.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// WithCode returns the error with a specific stable code, replacing the
// kind-derived one.
func (e *Error) WithCode(code string) *Error {
	e.code = code
	return e
}

// Convenience constructors for common error types.

// NotFound creates a not found error.
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// ConsentRequired creates a consent-required error.
func ConsentRequired(message string) *Error {
	return New(KindConsentRequired, message)
}

// LimitReached creates a limit-reached error.
func LimitReached(message string) *Error {
	return New(KindLimitReached, message)
}

// External creates an external-failure error (downstream service).
func External(message string) *Error {
	return New(KindExternal, message)
}

// Conflict creates a conflict error (e.g., duplicate resource).
func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// Internal creates an internal server error.
func Internal(message string) *Error {
	return New(KindInternal, message)
}

// GetKind extracts the error kind from an error.
// Returns KindUnknown if the error is not an *Error.
func GetKind(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindUnknown
}

// Is checks if err is an *Error with the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
