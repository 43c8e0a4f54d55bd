package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrCircuitOpen is returned while a breaker is fast-failing calls.
var ErrCircuitOpen = errors.New("circuit breaker is open: service unavailable")

// ErrRateLimited is returned when the sliding window is full.
var ErrRateLimited = errors.New("rate limit exceeded")

// HTTPError is a non-2xx upstream response surfaced as an error so the
// retry predicate can branch on the status code.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream http status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream http status %d: %s", e.StatusCode, e.Body)
}

// RetryExhaustedError wraps the final failure after all attempts are spent.
type RetryExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("operation failed after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *RetryExhaustedError) Unwrap() error { return e.LastErr }

// DefaultShouldRetry is the stock retry predicate: retry no-response
// network errors, HTTP 5xx, HTTP 429, and timeouts; do not retry other
// 4xx statuses.
func DefaultShouldRetry(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= http.StatusInternalServerError ||
			httpErr.StatusCode == http.StatusTooManyRequests
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// Anything without an HTTP response is treated as a transport-level
	// failure and retried.
	return true
}
