package xapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrNotFound is returned when the requested account or tweet does not exist upstream.
var ErrNotFound = errors.New("not found")

// StatusError is an upstream API failure with its numeric status code.
// RetryAfter is only set for rate-limit responses that carried a reset hint.
type StatusError struct {
	Code       int
	Message    string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("x api: %d %s", e.Code, e.Message)
}

// RateLimited reports whether the upstream signaled throttling.
func (e *StatusError) RateLimited() bool {
	return e.Code == http.StatusTooManyRequests
}

// IsRateLimit reports whether err is an upstream rate-limit failure.
func IsRateLimit(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.RateLimited()
}
