package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
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

// Is matches errors sharing the same code so clones and wraps of a
// predefined error still satisfy errors.Is against it.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
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
	ErrNotFound              = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden             = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized          = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict              = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation            = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal              = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss             = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrInsufficientHistory   = New("INSUFFICIENT_HISTORY", http.StatusUnprocessableEntity, "no historical data")
	ErrPredictionUnavailable = New("PREDICTION_UNAVAILABLE", http.StatusBadGateway, "prediction service unavailable")
	ErrNotGroupMember        = New("NOT_GROUP_MEMBER", http.StatusForbidden, "caller does not belong to the group")
	ErrRateLimited           = New("RATE_LIMITED", http.StatusTooManyRequests, "too many requests")
	ErrQueueFull             = New("QUEUE_FULL", http.StatusServiceUnavailable, "work queue is full")
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

// RateLimitError reports how long the caller must wait before retrying.
type RateLimitError struct {
	Err        *Error
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return e.Err.Error()
}

// Unwrap exposes the typed error for errors.Is/As.
func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// RateLimited builds a rate limit error carrying the remaining cooldown.
func RateLimited(retryAfter time.Duration) *RateLimitError {
	msg := fmt.Sprintf("retry after %s", retryAfter.Round(time.Second))
	return &RateLimitError{Err: Clone(ErrRateLimited, msg), RetryAfter: retryAfter}
}
