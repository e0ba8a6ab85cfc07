// Package resilience provides retry and circuit breaker support for calls to
// the news feed and the enrichment capability.
package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// TransientError wraps an error that is safe to retry (network failure, 5xx,
// or an upstream rate-limit signal).
type TransientError struct {
	Err         error
	StatusCode  int
	RateLimited bool
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as transient with an optional HTTP status
// code. Status 429 is automatically flagged as a rate-limit signal.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode, RateLimited: statusCode == 429}
}

// NewRateLimitError wraps an error as a rate-limit signal regardless of status
// code, for upstreams that report throttling in an error payload.
func NewRateLimitError(err error) *TransientError {
	return &TransientError{Err: err, StatusCode: 429, RateLimited: true}
}

// IsTransient reports whether the error (or any error in its chain) is safe to
// retry: an explicit TransientError, a network timeout, or a connection-level
// failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsRateLimited reports whether the error chain carries an upstream
// rate-limit signal. Rate-limited errors get a longer backoff than generic
// transient failures.
func IsRateLimited(err error) bool {
	var te *TransientError
	if errors.As(err, &te) {
		return te.RateLimited
	}
	return false
}

// IsTransientHTTPStatus reports whether an HTTP status code indicates a
// retryable server-side condition.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
