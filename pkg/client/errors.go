package client

import (
	"errors"
	"fmt"
	"time"
)

// ErrRateLimitTimeout is the cause carried by the rate-limit error returned
// when local token acquisition times out before the provider is ever called.
var ErrRateLimitTimeout = errors.New("rate limit acquisition timed out")

// Kind classifies a failure into the fixed domain taxonomy.
type Kind string

const (
	// KindConnection covers unreachable providers and unclassified failures.
	KindConnection Kind = "connection"

	// KindRateLimit covers provider-side throttling.
	KindRateLimit Kind = "rate_limit"

	// KindInvalidInput covers malformed or unknown trading pairs.
	KindInvalidInput Kind = "invalid_input"

	// KindTimeout covers operations exceeding their configured duration.
	KindTimeout Kind = "timeout"

	// KindValidation covers caller-supplied parameters failing pre-call checks.
	KindValidation Kind = "validation"

	// KindData covers provider responses the core cannot interpret.
	KindData Kind = "data"
)

// Severity weighs an error for logging and alerting. It never drives
// control flow.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Error is a classified provider failure. Errors are immutable once built
// and propagate by substitution.
type Error struct {
	Kind     Kind
	Severity Severity
	Message  string

	// Kind-specific context. Zero values mean not applicable.
	Provider   string
	Symbol     string
	Timeout    time.Duration
	RetryAfter time.Duration

	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s error [%s]: %s", e.Kind, e.Provider, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewConnectionError builds a connection-kind error for a provider.
func NewConnectionError(provider, message string, err error) *Error {
	return &Error{
		Kind:     KindConnection,
		Severity: SeverityMedium,
		Message:  message,
		Provider: provider,
		Err:      err,
	}
}

// NewRateLimitError builds a throttling error, optionally with a retry-after
// hint.
func NewRateLimitError(provider, message string, retryAfter time.Duration, err error) *Error {
	return &Error{
		Kind:       KindRateLimit,
		Severity:   SeverityHigh,
		Message:    message,
		Provider:   provider,
		RetryAfter: retryAfter,
		Err:        err,
	}
}

// NewInvalidInputError builds an unknown-pair error. An unextractable symbol
// defaults to "unknown".
func NewInvalidInputError(symbol, provider string, err error) *Error {
	if symbol == "" {
		symbol = "unknown"
	}
	return &Error{
		Kind:     KindInvalidInput,
		Severity: SeverityMedium,
		Message:  fmt.Sprintf("invalid trading pair %q", symbol),
		Provider: provider,
		Symbol:   symbol,
		Err:      err,
	}
}

// NewTimeoutError builds a timeout error carrying the configured duration.
func NewTimeoutError(provider string, timeout time.Duration, err error) *Error {
	return &Error{
		Kind:     KindTimeout,
		Severity: SeverityHigh,
		Message:  fmt.Sprintf("request timed out after %s", timeout),
		Provider: provider,
		Timeout:  timeout,
		Err:      err,
	}
}

// NewValidationError builds a pre-call parameter failure.
func NewValidationError(field string, value any, reason string) *Error {
	return &Error{
		Kind:     KindValidation,
		Severity: SeverityLow,
		Message:  fmt.Sprintf("validation failed for %q (%v): %s", field, value, reason),
	}
}

// NewDataError builds an uninterpretable-response error.
func NewDataError(provider, message string, err error) *Error {
	return &Error{
		Kind:     KindData,
		Severity: SeverityMedium,
		Message:  message,
		Provider: provider,
		Err:      err,
	}
}

// IsRetryable reports whether a kind is transient. Connection, timeout and
// rate-limit failures may succeed on a later attempt; retrying a malformed
// request cannot.
func IsRetryable(kind Kind) bool {
	switch kind {
	case KindConnection, KindTimeout, KindRateLimit:
		return true
	default:
		return false
	}
}
