package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Status  int         `json:"status"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")

	ErrCapacityExceeded         = New("CAPACITY_EXCEEDED", http.StatusConflict, "session is full")
	ErrDuplicateBooking         = New("DUPLICATE_BOOKING", http.StatusConflict, "swimmer already booked for session")
	ErrAlreadyTerminal          = New("ALREADY_TERMINAL", http.StatusConflict, "booking is no longer active")
	ErrFloatingUnavailable      = New("FLOATING_UNAVAILABLE", http.StatusConflict, "floating session is no longer available")
	ErrTimeSlotConflict         = New("TIME_SLOT_CONFLICT", http.StatusConflict, "swimmer already booked in this time slot")
	ErrInvalidTransition        = New("INVALID_TRANSITION", http.StatusConflict, "status transition not allowed")
	ErrAuthorizationExhausted   = New("AUTHORIZATION_EXHAUSTED", http.StatusUnprocessableEntity, "funding authorization exhausted")
	ErrLateCancellation         = New("LATE_CANCELLATION", http.StatusPreconditionFailed, "cancellation window has closed")
	ErrFlexibleRecurringBlocked = New("FLEXIBLE_SWIMMER_RECURRING_BLOCKED", http.StatusPreconditionFailed, "flexible swimmers cannot book recurring sessions")
	ErrTransientStore           = New("TRANSIENT_STORE_ERROR", http.StatusServiceUnavailable, "temporary storage failure")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithDetails returns a copy of err carrying a structured payload for the caller.
func WithDetails(err *Error, message string, details interface{}) *Error {
	clone := Clone(err, message)
	if clone != nil {
		clone.Details = details
	}
	return clone
}

// HasCode reports whether err normalises to an *Error with the given code.
func HasCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
