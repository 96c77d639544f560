package client

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

// Classify maps an arbitrary provider failure onto the domain taxonomy.
//
// Order matters: structurally-known failure types (deadline exceeded, network
// errors) are checked before the text heuristics, which are best-effort string
// matching and must not shadow them. An already classified *Error passes
// through unchanged, which is also the hook for providers that return
// structured error codes.
func Classify(err error, provider, symbol string, timeout time.Duration) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(provider, timeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return NewTimeoutError(provider, timeout, err)
		}
		return NewConnectionError(provider, err.Error(), err)
	}

	// Best-effort text heuristics from here on.
	msg := strings.ToLower(err.Error())

	if strings.Contains(msg, "rate") || strings.Contains(msg, "429") {
		return NewRateLimitError(provider, err.Error(), 0, err)
	}

	if strings.Contains(msg, "invalid") || strings.Contains(msg, "not found") {
		return NewInvalidInputError(symbol, provider, err)
	}

	// Fallback bucket: keep the original message, never drop it.
	return NewConnectionError(provider, err.Error(), err)
}
