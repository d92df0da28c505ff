// Package errors provides error handling functionality for the livechat service.
// It defines error categories, error codes, and the wire-safe error form.
package errors

import (
	"fmt"
	"time"

	"github.com/real-rm/livechat/internal/message"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	// CategoryAuth represents authentication and authorization errors
	CategoryAuth ErrorCategory = "auth"
	// CategoryValidation represents input validation errors
	CategoryValidation ErrorCategory = "validation"
	// CategoryExternal represents completion-provider and store failures
	CategoryExternal ErrorCategory = "external_service"
	// CategoryRateLimit represents rate limiting errors
	CategoryRateLimit ErrorCategory = "rate_limit"
	// CategoryInternal represents unexpected internal failures
	CategoryInternal ErrorCategory = "internal"
)

// ErrorCode represents specific error codes
type ErrorCode string

const (
	// Authentication errors
	ErrCodeInvalidToken      ErrorCode = "INVALID_TOKEN"
	ErrCodeExpiredToken      ErrorCode = "EXPIRED_TOKEN"
	ErrCodeInsufficientPerms ErrorCode = "INSUFFICIENT_PERMISSIONS"

	// Validation errors
	ErrCodeInvalidFormat   ErrorCode = "INVALID_FORMAT"
	ErrCodeMissingField    ErrorCode = "MISSING_FIELD"
	ErrCodeEmptyMessage    ErrorCode = "EMPTY_MESSAGE"
	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"

	// Completion provider failure kinds. Exactly these three classifications
	// leave the gateway; anything unrecognized maps to PROVIDER_UNAVAILABLE.
	ErrCodeRateLimited         ErrorCode = "RATE_LIMITED"
	ErrCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrCodeAuthFailure         ErrorCode = "AUTH_FAILURE"

	// Store errors
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"

	// Rate limiting errors
	ErrCodeTooManyRequests ErrorCode = "TOO_MANY_REQUESTS"
	ErrCodeConnectionLimit ErrorCode = "CONNECTION_LIMIT_EXCEEDED"
)

// ChatError represents an application error with category and recoverability information
type ChatError struct {
	Category    ErrorCategory
	Code        ErrorCode
	Message     string
	Recoverable bool
	RetryAfter  time.Duration // only meaningful for rate limit errors
	Cause       error
}

// Error implements the error interface
func (e *ChatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *ChatError) Unwrap() error {
	return e.Cause
}

// IsFatal returns true if the error is fatal and requires connection closure
func (e *ChatError) IsFatal() bool {
	return !e.Recoverable
}

// ToErrorInfo converts a ChatError to the wire-safe form. The Cause is
// deliberately excluded: provider detail never reaches visitors.
func (e *ChatError) ToErrorInfo() *message.ErrorInfo {
	return &message.ErrorInfo{
		Code:        string(e.Code),
		Message:     e.Message,
		Recoverable: e.Recoverable,
		RetryAfter:  int(e.RetryAfter / time.Second),
	}
}

// NewAuthError creates a new authentication error (fatal)
func NewAuthError(code ErrorCode, message string, cause error) *ChatError {
	return &ChatError{
		Category:    CategoryAuth,
		Code:        code,
		Message:     message,
		Recoverable: false, // Auth errors are fatal
		Cause:       cause,
	}
}

// NewValidationError creates a new validation error (recoverable)
func NewValidationError(code ErrorCode, message string, cause error) *ChatError {
	return &ChatError{
		Category:    CategoryValidation,
		Code:        code,
		Message:     message,
		Recoverable: true, // Validation errors are recoverable
		Cause:       cause,
	}
}

// NewExternalError creates a new external-service error (recoverable)
func NewExternalError(code ErrorCode, message string, cause error) *ChatError {
	return &ChatError{
		Category:    CategoryExternal,
		Code:        code,
		Message:     message,
		Recoverable: true, // The conversation continues on a fallback path
		Cause:       cause,
	}
}

// NewRateLimitError creates a new rate limit error carrying a retry-after hint
func NewRateLimitError(code ErrorCode, message string, retryAfter time.Duration, cause error) *ChatError {
	return &ChatError{
		Category:    CategoryRateLimit,
		Code:        code,
		Message:     message,
		Recoverable: true,
		RetryAfter:  retryAfter,
		Cause:       cause,
	}
}

// Common error constructors for convenience

// ErrInvalidToken creates an invalid token error
func ErrInvalidToken(cause error) *ChatError {
	return NewAuthError(ErrCodeInvalidToken, "Invalid authentication token", cause)
}

// ErrExpiredToken creates an expired token error
func ErrExpiredToken(cause error) *ChatError {
	return NewAuthError(ErrCodeExpiredToken, "Authentication token has expired", cause)
}

// ErrInsufficientPermissions creates an insufficient permissions error
func ErrInsufficientPermissions(cause error) *ChatError {
	return NewAuthError(ErrCodeInsufficientPerms, "Insufficient permissions for this operation", cause)
}

// ErrInvalidMessageFormat creates an invalid message format error
func ErrInvalidMessageFormat(details string, cause error) *ChatError {
	return NewValidationError(ErrCodeInvalidFormat, fmt.Sprintf("Invalid message format: %s", details), cause)
}

// ErrMissingField creates a missing field error
func ErrMissingField(fieldName string) *ChatError {
	return NewValidationError(ErrCodeMissingField, fmt.Sprintf("Required field missing: %s", fieldName), nil)
}

// ErrEmptyMessage creates an empty message body error
func ErrEmptyMessage() *ChatError {
	return NewValidationError(ErrCodeEmptyMessage, "Message body must not be empty", nil)
}

// ErrSessionNotFound creates a session not found error
func ErrSessionNotFound(ref string) *ChatError {
	return NewValidationError(ErrCodeSessionNotFound, fmt.Sprintf("Session not found: %s", ref), nil)
}

// ErrRateLimited creates a provider rate-limit error. The retryAfter window
// comes from the provider's Retry-After header, or the configured default
// when the provider omits one.
func ErrRateLimited(retryAfter time.Duration, cause error) *ChatError {
	return &ChatError{
		Category:    CategoryRateLimit,
		Code:        ErrCodeRateLimited,
		Message:     "Completion provider rate limit reached",
		Recoverable: true,
		RetryAfter:  retryAfter,
		Cause:       cause,
	}
}

// ErrProviderUnavailable creates a provider unavailable error
func ErrProviderUnavailable(cause error) *ChatError {
	return NewExternalError(ErrCodeProviderUnavailable, "Completion provider is unavailable", cause)
}

// ErrProviderAuthFailure creates a provider credential/config error
func ErrProviderAuthFailure(cause error) *ChatError {
	return NewExternalError(ErrCodeAuthFailure, "Completion provider rejected credentials", cause)
}

// ErrDatabaseError creates a database error
func ErrDatabaseError(cause error) *ChatError {
	return NewExternalError(ErrCodeDatabaseError, "Database operation failed", cause)
}

// ErrTooManyRequests creates a too many requests error
func ErrTooManyRequests(retryAfter time.Duration) *ChatError {
	return NewRateLimitError(ErrCodeTooManyRequests,
		"Too many requests, please slow down", retryAfter, nil)
}

// ErrConnectionLimitExceeded creates a connection limit exceeded error
func ErrConnectionLimitExceeded(retryAfter time.Duration) *ChatError {
	return NewRateLimitError(ErrCodeConnectionLimit,
		"Connection limit exceeded, please try again later", retryAfter, nil)
}
