package model

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ProviderError is the error adapters return for failed provider calls.
type ProviderError struct {
	Provider   string
	StatusCode int // 0 when the request never got an HTTP response
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s api error (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("%s api error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsTransient reports whether err is worth retrying: rate limits, server
// errors, timeouts and connection failures. Cancellation is never transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var pe *ProviderError
	if errors.As(err, &pe) && pe.StatusCode != 0 {
		switch {
		case pe.StatusCode == http.StatusTooManyRequests,
			pe.StatusCode == http.StatusRequestTimeout,
			pe.StatusCode == http.StatusConflict,
			pe.StatusCode >= 500:
			return true
		default:
			return false
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return pe != nil
}
