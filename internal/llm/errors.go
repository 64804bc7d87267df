package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

// StatusOverloaded is Anthropic's "overloaded" status
const StatusOverloaded = 529

// ErrReadTimeout is returned when the response body is not read in time
var ErrReadTimeout = errors.New("response body read timed out")

// StatusError is a non-2xx answer from an oracle
type StatusError struct {
	Provider   string
	StatusCode int
	Type       string // Provider error type, if any
	Message    string
}

func (e *StatusError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s API error (%d): %s - %s", e.Provider, e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.StatusCode, e.Message)
}

// SchemaError reports an oracle response that failed shape validation
// It is never retried
type SchemaError struct {
	Oracle  string
	Reasons []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s response failed schema validation: %s", e.Oracle, strings.Join(e.Reasons, "; "))
}

// IsRateLimited reports whether err is an HTTP 429
func IsRateLimited(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests
}

// IsOverloaded reports whether err signals the oracle is overloaded (529 or 503)
func IsOverloaded(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == StatusOverloaded || se.StatusCode == http.StatusServiceUnavailable
}

// IsTransient reports whether a failed call may succeed when retried:
// 408, 429, 5xx, 529, network timeouts, resets and body-read timeouts.
// Schema errors and the caller's own cancellation are permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusRequestTimeout,
			se.StatusCode == http.StatusTooManyRequests,
			se.StatusCode >= 500:
			return true
		}
		return false
	}

	if errors.Is(err, ErrReadTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return isRetryableNetworkError(err.Error())
}

// isRetryableNetworkError checks error strings for transient network failures
func isRetryableNetworkError(errMsg string) bool {
	s := strings.ToLower(errMsg)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
