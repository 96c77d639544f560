package client

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "with provider",
			err:  NewConnectionError("binance", "connection refused", nil),
			want: "connection error [binance]: connection refused",
		},
		{
			name: "without provider",
			err:  NewValidationError("symbol", "bad", "expected BASE/QUOTE form"),
			want: `validation error: validation failed for "symbol" (bad): expected BASE/QUOTE form`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := NewConnectionError("binance", "failed", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() did not find the wrapped cause")
	}

	var classified *Error
	if !errors.As(error(err), &classified) {
		t.Error("errors.As() did not match *Error")
	}
}

func TestNewInvalidInputError_UnknownSymbol(t *testing.T) {
	err := NewInvalidInputError("", "binance", nil)

	if err.Symbol != "unknown" {
		t.Errorf("Symbol = %q, want unknown", err.Symbol)
	}
	if !strings.Contains(err.Message, `"unknown"`) {
		t.Errorf("Message = %q, want it to name the unknown symbol", err.Message)
	}
}

func TestNewTimeoutError_CarriesDuration(t *testing.T) {
	err := NewTimeoutError("binance", 5*time.Second, nil)

	if err.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", err.Timeout)
	}
	if !strings.Contains(err.Message, "5s") {
		t.Errorf("Message = %q, want it to include the timeout", err.Message)
	}
}

func TestNewRateLimitError_RetryAfter(t *testing.T) {
	err := NewRateLimitError("binance", "throttled", 30*time.Second, nil)

	if err.RetryAfter != 30*time.Second {
		t.Errorf("RetryAfter = %v, want 30s", err.RetryAfter)
	}
	if err.Severity != SeverityHigh {
		t.Errorf("Severity = %v, want high", err.Severity)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindConnection, true},
		{KindTimeout, true},
		{KindRateLimit, true},
		{KindInvalidInput, false},
		{KindValidation, false},
		{KindData, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := IsRetryable(tt.kind); got != tt.want {
				t.Errorf("IsRetryable(%s) = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}
