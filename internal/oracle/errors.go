package oracle

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrorCode is the closed classification of oracle failures.
type ErrorCode string

const (
	// ErrRateLimited means the provider throttled us; retry after a delay.
	ErrRateLimited ErrorCode = "RATE_LIMITED"

	// ErrTransient covers network failures, timeouts and 5xx responses.
	ErrTransient ErrorCode = "TRANSIENT"

	// ErrMisconfigured covers auth failures and unusable configuration.
	// Not retryable: the same request will keep failing.
	ErrMisconfigured ErrorCode = "MISCONFIGURED"

	// ErrMalformedResponse means the model returned something that is not
	// the JSON shape we asked for. Not retryable by policy - retrying burns
	// tokens with no signal the next answer parses.
	ErrMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
)

// Error is a classified oracle failure.
type Error struct {
	Code       ErrorCode
	Retryable  bool
	RetryAfter time.Duration // suggested delay, only set for rate limits
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("oracle %s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, retryable bool, err error) *Error {
	return &Error{Code: code, Retryable: retryable, Err: err}
}

// IsRetryable reports whether err is an oracle error worth retrying.
func IsRetryable(err error) bool {
	var oe *Error
	return errors.As(err, &oe) && oe.Retryable
}

// classifyHTTP maps a provider HTTP status to an oracle error.
func classifyHTTP(status int, provider string) *Error {
	err := fmt.Errorf("%s returned status %d", provider, status)
	switch {
	case status == 429:
		return &Error{Code: ErrRateLimited, Retryable: true, RetryAfter: 60 * time.Second, Err: err}
	case status == 401 || status == 403:
		return newError(ErrMisconfigured, false, err)
	case status >= 500:
		return newError(ErrTransient, true, err)
	default:
		return newError(ErrMisconfigured, false, err)
	}
}

// classifyTransport maps a transport-level failure to an oracle error.
// Cancellation is passed through so callers can distinguish an abandoned
// request from a failed one.
func classifyTransport(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newError(ErrTransient, true, err)
	}
	return newError(ErrTransient, true, err)
}
