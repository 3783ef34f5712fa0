package apperrors

import (
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrAuthFailed       ErrorType = "AUTH_FAILED"
	ErrCredsMissing     ErrorType = "CREDENTIALS_MISSING"
	ErrTokenExchange    ErrorType = "TOKEN_EXCHANGE_FAILED"
	ErrRateLimited      ErrorType = "RATE_LIMITED"
	ErrUpstream         ErrorType = "UPSTREAM_ERROR"
	ErrUpstreamAuth     ErrorType = "UPSTREAM_AUTH_FAILED"
	ErrInvalidUpstream  ErrorType = "INVALID_UPSTREAM_RESPONSE"
	ErrPersistence      ErrorType = "PERSISTENCE_ERROR"
	ErrValidation       ErrorType = "VALIDATION_ERROR"
	ErrMethodNotAllowed ErrorType = "METHOD_NOT_ALLOWED"
	ErrInternal         ErrorType = "INTERNAL_ERROR"
)

// AppError is the standard error struct for the application
type AppError struct {
	Type       ErrorType `json:"code"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
	RetryAfter string    `json:"retryAfter,omitempty"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(errType ErrorType, msg string, cause error) *AppError {
	return &AppError{
		Type:       errType,
		Message:    msg,
		Cause:      cause,
		HTTPStatus: mapTypeToStatus(errType),
		Suggestion: mapTypeToSuggestion(errType),
	}
}

// NewRateLimited carries the upstream retry-after hint so the external
// scheduler can reschedule instead of hammering.
func NewRateLimited(msg, retryAfter string, cause error) *AppError {
	e := New(ErrRateLimited, msg, cause)
	if retryAfter == "" {
		retryAfter = "60"
	}
	e.RetryAfter = retryAfter
	return e
}

func NewCredsMissing(msg string) *AppError {
	return New(ErrCredsMissing, msg, nil)
}

func NewValidation(msg string) *AppError {
	return New(ErrValidation, msg, nil)
}

func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return New(ErrInternal, err.Error(), err)
}

func mapTypeToStatus(t ErrorType) int {
	switch t {
	case ErrAuthFailed, ErrUpstreamAuth:
		return http.StatusUnauthorized
	case ErrValidation:
		return http.StatusBadRequest
	case ErrMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrRateLimited:
		return http.StatusTooManyRequests
	default:
		// CredsMissing, TokenExchange, Upstream, InvalidUpstream,
		// Persistence and Internal all surface as 500 to the scheduler.
		return http.StatusInternalServerError
	}
}

func mapTypeToSuggestion(t ErrorType) string {
	switch t {
	case ErrCredsMissing:
		return "Check SP-API / Ads API credentials in configuration."
	case ErrTokenExchange, ErrUpstreamAuth:
		return "Refresh token may be expired or revoked; re-authorize the seller account."
	case ErrRateLimited:
		return "Retry after the indicated delay."
	case ErrAuthFailed:
		return "Check the x-cron-secret header."
	default:
		return ""
	}
}
