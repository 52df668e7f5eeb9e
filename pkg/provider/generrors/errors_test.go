package generrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTypeString(t *testing.T) {
	cases := map[ErrorType]string{
		ErrorTypeRateLimit:          "rate_limit",
		ErrorTypeTransient:          "transient",
		ErrorTypeEmptyResponse:      "empty_response",
		ErrorTypeAuth:               "auth",
		ErrorTypeBadPrompt:          "bad_prompt",
		ErrorTypeUnknown:            "unknown",
		ErrorTypeServiceUnavailable: "service_unavailable",
		ErrorType(42):               "invalid",
	}
	for et, want := range cases {
		assert.Equal(t, want, et.String())
	}
}

func TestErrorMessageForms(t *testing.T) {
	withMessage := New(ErrorTypeRateLimit, "quota exhausted")
	assert.Equal(t, "generation error (rate_limit): quota exhausted", withMessage.Error())

	withCause := &Error{Type: ErrorTypeTransient, Err: errors.New("dial tcp: connection refused")}
	assert.Equal(t, "generation error (transient): dial tcp: connection refused", withCause.Error())

	withStatus := &Error{Type: ErrorTypeAuth, StatusCode: 401}
	assert.Equal(t, "generation error (auth): status 401", withStatus.Error())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewWithCause(ErrorTypeUnknown, cause, "wrapped")
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("while generating: %w", err)
	assert.True(t, Is(wrapped, ErrorTypeUnknown))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(wrapped))
}

func TestIsRetryable(t *testing.T) {
	retryable := []ErrorType{
		ErrorTypeRateLimit,
		ErrorTypeTransient,
		ErrorTypeEmptyResponse,
		ErrorTypeUnknown,
	}
	for _, et := range retryable {
		assert.True(t, New(et, "x").IsRetryable(), et.String())
	}

	terminal := []ErrorType{
		ErrorTypeAuth,
		ErrorTypeBadPrompt,
		ErrorTypeServiceUnavailable,
	}
	for _, et := range terminal {
		assert.False(t, New(et, "x").IsRetryable(), et.String())
	}
}

func TestTypeOfUnclassified(t *testing.T) {
	assert.Equal(t, ErrorTypeUnknown, TypeOf(errors.New("plain")))
	assert.False(t, Is(errors.New("plain"), ErrorTypeAuth))
}

func TestClassifyContextErrors(t *testing.T) {
	err := Classify(context.DeadlineExceeded)
	require.NotNil(t, err)
	assert.Equal(t, ErrorTypeTransient, err.Type)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	err = Classify(context.Canceled)
	require.NotNil(t, err)
	assert.Equal(t, ErrorTypeTransient, err.Type)
}

func TestClassifyStatusCodes(t *testing.T) {
	cases := []struct {
		msg    string
		want   ErrorType
		status int
	}{
		{"request failed, status code: 401", ErrorTypeAuth, 401},
		{"request failed, status code: 403", ErrorTypeAuth, 403},
		{"request failed, status code: 429", ErrorTypeRateLimit, 429},
		{"request failed, status code: 400", ErrorTypeBadPrompt, 400},
		{"request failed, status code: 500", ErrorTypeTransient, 500},
		{"upstream said HTTP 503", ErrorTypeTransient, 503},
		{"post failed with status: 502", ErrorTypeTransient, 502},
	}
	for _, tc := range cases {
		got := Classify(errors.New(tc.msg))
		require.NotNil(t, got, tc.msg)
		assert.Equal(t, tc.want, got.Type, tc.msg)
		assert.Equal(t, tc.status, got.StatusCode, tc.msg)
	}
}

func TestClassifyTextPatterns(t *testing.T) {
	cases := []struct {
		msg  string
		want ErrorType
	}{
		{"client timeout exceeded", ErrorTypeTransient},
		{"connection reset by peer", ErrorTypeTransient},
		{"unexpected EOF", ErrorTypeTransient},
		{"quota exceeded for project", ErrorTypeRateLimit},
		{"model overloaded, retry later", ErrorTypeRateLimit},
		{"invalid api key provided", ErrorTypeAuth},
		{"request body too large", ErrorTypeBadPrompt},
		{"something inexplicable", ErrorTypeUnknown},
	}
	for _, tc := range cases {
		got := Classify(errors.New(tc.msg))
		require.NotNil(t, got, tc.msg)
		assert.Equal(t, tc.want, got.Type, tc.msg)
	}
}

func TestClassifyPassesThroughClassified(t *testing.T) {
	orig := NewWithStatus(ErrorTypeRateLimit, 429, "slow down")
	got := Classify(fmt.Errorf("attempt 2: %w", orig))
	assert.Same(t, orig, got)
	assert.Nil(t, Classify(nil))
}
