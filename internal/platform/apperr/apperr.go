// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error handling framework for the member portal.

It provides a rich error type that bridges the gap between backend REST failures,
transport failures, and the JSON responses the portal sends to its visitors.

Taxonomy:

  - NETWORK_ERROR: the backend could not be reached, no response exists.
  - UNAUTHORIZED: a 401 from the backend (recoverable once by a token refresh).
  - SESSION_EXPIRED: the refresh itself failed; the visitor must log in again.
  - VALIDATION_ERROR: any other 4xx, surfaced to the visitor as-is.
  - SERVER_ERROR: a 5xx from the backend, surfaced as-is and never retried.

Every error that leaves the gateway or the portal handlers should be an [AppError]
so the response envelope stays consistent.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Machine-readable error codes.
const (
	CodeNetwork        = "NETWORK_ERROR"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeSessionExpired = "SESSION_EXPIRED"
	CodeValidation     = "VALIDATION_ERROR"
	CodeServer         = "SERVER_ERROR"
	CodeNotFound       = "NOT_FOUND"
	CodeForbidden      = "FORBIDDEN"
	CodeRateLimited    = "RATE_LIMITED"
	CodeInternal       = "INTERNAL_ERROR"
	CodeUnavailable    = "SERVICE_UNAVAILABLE"
)

// AppError is the canonical error type of the portal.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients.
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "NOT_FOUND", "SESSION_EXPIRED").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"error"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Client Errors (4xx)

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Product") // Returns "Product not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// Unauthorized creates a 401 [AppError].
func Unauthorized(msg string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// SessionExpired creates a 401 [AppError] signalling that the session is gone
// and the visitor has to authenticate again.
func SessionExpired(cause error) *AppError {
	return &AppError{
		Code:       CodeSessionExpired,
		Message:    "Your session has expired. Please log in again.",
		HTTPStatus: http.StatusUnauthorized,
		Cause:      cause,
	}
}

// Forbidden creates a 403 [AppError].
func Forbidden(msg string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    msg,
		HTTPStatus: http.StatusForbidden,
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// RateLimited creates a 429 [AppError].
func RateLimited(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       CodeRateLimited,
		Message:    fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// ServiceUnavailable creates a 503 [AppError].
func ServiceUnavailable(msg string) *AppError {
	return &AppError{
		Code:       CodeUnavailable,
		Message:    msg,
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// Network creates a 502 [AppError] for a backend that produced no response at all.
func Network(cause error) *AppError {
	return &AppError{
		Code:       CodeNetwork,
		Message:    "The membership service could not be reached",
		HTTPStatus: http.StatusBadGateway,
		Cause:      cause,
	}
}

// # Backend Classification

// FromStatus classifies a non-2xx backend status into an [AppError].
//
// A 4xx or 5xx status is kept so the portal can surface it unchanged. Any
// other status (1xx, 3xx) is a backend fault and surfaces as 502.
// An empty message falls back to the standard status text.
func FromStatus(status int, message string) *AppError {
	if message == "" {
		message = http.StatusText(status)
	}

	code, httpStatus := CodeServer, status
	switch {
	case status == http.StatusUnauthorized:
		code = CodeUnauthorized
	case status >= 400 && status < 500:
		code = CodeValidation
	case status < 400:
		httpStatus = http.StatusBadGateway
	}

	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HasCode reports whether err carries an [*AppError] with the given code.
func HasCode(err error, code string) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}
