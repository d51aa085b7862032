package resilience

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
)

// HTTPStatusError is implemented by upstream errors that carry an HTTP status.
type HTTPStatusError interface {
	error
	HTTPStatus() int
}

// IsTransient is the default allow-list: timeouts, throttling, 5xx responses
// and dropped connections. Programming and validation errors are not retried.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	var statusErr HTTPStatusError
	if errors.As(err, &statusErr) {
		return RetryableStatus(statusErr.HTTPStatus())
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

var transientMarkers = []string{
	"http status 5",
	"server_error",
	"rate limit",
	"resource_exhausted",
	"unavailable",
	"connection reset",
	"connection refused",
	"connection closed",
	"broken pipe",
	"tls handshake timeout",
	"client.timeout",
	"eof",
}

// RetryableStatus reports whether an HTTP status is worth another attempt.
func RetryableStatus(code int) bool {
	switch {
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
		return true
	case code >= 500 && code <= 599:
		return code != http.StatusNotImplemented
	default:
		return false
	}
}

// RetryAll retries every error except caller cancellation.
func RetryAll(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}
