// Package generrors classifies generation provider failures. The convergence
// controller treats every failed attempt the same way, but diagnostics and
// metrics want to know whether a failure was worth retrying at all.
package generrors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType categorizes provider failures.
type ErrorType int8

const (
	// ErrorTypeRateLimit is quota exhaustion or HTTP 429.
	ErrorTypeRateLimit ErrorType = iota
	// ErrorTypeTransient is a 5xx, timeout, EOF or connection reset.
	ErrorTypeTransient
	// ErrorTypeEmptyResponse is a successful call that produced no content.
	ErrorTypeEmptyResponse
	// ErrorTypeAuth is a bad or missing credential (401/403).
	ErrorTypeAuth
	// ErrorTypeBadPrompt is a malformed or rejected request (400).
	ErrorTypeBadPrompt
	// ErrorTypeUnknown is anything unclassified.
	ErrorTypeUnknown
	// ErrorTypeServiceUnavailable marks a provider given up on for this run.
	ErrorTypeServiceUnavailable
)

// String returns the label used in logs and metrics.
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeEmptyResponse:
		return "empty_response"
	case ErrorTypeAuth:
		return "auth"
	case ErrorTypeBadPrompt:
		return "bad_prompt"
	case ErrorTypeUnknown:
		return "unknown"
	case ErrorTypeServiceUnavailable:
		return "service_unavailable"
	default:
		return "invalid"
	}
}

// Error is a classified provider failure.
type Error struct {
	Err        error
	Message    string
	Type       ErrorType
	StatusCode int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("generation error (%s): %s", e.Type.String(), e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("generation error (%s): %v", e.Type.String(), e.Err)
	}
	return fmt.Sprintf("generation error (%s): status %d", e.Type.String(), e.StatusCode)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether another attempt could plausibly succeed.
// Blocklist approach: everything is retryable unless known not to be.
func (e *Error) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeAuth, ErrorTypeBadPrompt, ErrorTypeServiceUnavailable:
		return false
	default:
		return true
	}
}

// Is checks whether err carries the given type.
func Is(err error, errorType ErrorType) bool {
	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr.Type == errorType
	}
	return false
}

// TypeOf returns the classified type, or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr.Type
	}
	return ErrorTypeUnknown
}

// New creates a classified error from a message.
func New(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// NewWithStatus creates a classified error carrying an HTTP status.
func NewWithStatus(errorType ErrorType, statusCode int, message string) *Error {
	return &Error{Type: errorType, StatusCode: statusCode, Message: message}
}

// NewWithCause creates a classified error wrapping another error.
func NewWithCause(errorType ErrorType, cause error, message string) *Error {
	return &Error{Type: errorType, Err: cause, Message: message}
}

// Classify maps an arbitrary transport error onto the taxonomy: context
// errors first, then HTTP status codes embedded in the message, then common
// text patterns. Already-classified errors pass through unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewWithCause(ErrorTypeTransient, err, "request timeout")
	}
	if errors.Is(err, context.Canceled) {
		return NewWithCause(ErrorTypeTransient, err, "request canceled")
	}

	msg := err.Error()
	switch status := extractStatusCode(msg); status {
	case 401:
		return NewWithStatus(ErrorTypeAuth, status, "authentication failed - check API key")
	case 403:
		return NewWithStatus(ErrorTypeAuth, status, "permission denied - check API access")
	case 429:
		return NewWithStatus(ErrorTypeRateLimit, status, "rate limit exceeded")
	case 400:
		return NewWithStatus(ErrorTypeBadPrompt, status, "bad request - check prompt format and parameters")
	case 500, 502, 503, 504:
		return NewWithStatus(ErrorTypeTransient, status, "server error")
	}

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "timeout"),
		strings.Contains(lower, "connection"),
		strings.Contains(lower, "network"),
		strings.Contains(lower, "temporary"),
		strings.Contains(msg, "EOF"),
		strings.Contains(lower, "reset"):
		return NewWithCause(ErrorTypeTransient, err, "network or connection error")
	case strings.Contains(lower, "rate"),
		strings.Contains(lower, "quota"),
		strings.Contains(lower, "overloaded"):
		return NewWithCause(ErrorTypeRateLimit, err, "rate limiting detected")
	case strings.Contains(lower, "unauthorized"),
		strings.Contains(lower, "api key"),
		strings.Contains(lower, "auth"):
		return NewWithCause(ErrorTypeAuth, err, "authentication error")
	case strings.Contains(lower, "invalid"),
		strings.Contains(lower, "malformed"),
		strings.Contains(lower, "too large"):
		return NewWithCause(ErrorTypeBadPrompt, err, "prompt or request error")
	}
	return NewWithCause(ErrorTypeUnknown, err, "unclassified error")
}

// extractStatusCode pulls an HTTP status out of an error message. Provider
// SDKs embed codes in text rather than exposing them uniformly.
func extractStatusCode(msg string) int {
	lower := strings.ToLower(msg)
	for _, pattern := range []string{"status code: ", "status: ", "http "} {
		idx := strings.Index(lower, pattern)
		if idx == -1 {
			continue
		}
		rest := msg[idx+len(pattern):]
		for _, code := range []struct {
			text  string
			value int
		}{
			{"400", 400}, {"401", 401}, {"403", 403}, {"429", 429},
			{"500", 500}, {"502", 502}, {"503", 503}, {"504", 504},
		} {
			if strings.HasPrefix(rest, code.text) {
				return code.value
			}
		}
	}
	return 0
}
