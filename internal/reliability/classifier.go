package reliability

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

// IsRetryableHTTPStatus classifies retryable HTTP status codes.
func IsRetryableHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// retryableFragments are substrings that mark transient provider errors.
// Provider SDKs wrap upstream failures as opaque strings, so matching on
// the message is the only uniform signal available.
var retryableFragments = []string{
	"429",
	"500",
	"502",
	"503",
	"504",
	"rate limit",
	"rate_limited",
	"resource_exhausted",
	"overloaded",
	"timeout",
	"connection reset",
	"temporarily unavailable",
}

// IsRetryableGenerationError classifies generation client failures that are
// worth one more attempt. Context cancellation is never retryable.
func IsRetryableGenerationError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range retryableFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// ExponentialBackoff computes a deterministic capped backoff duration.
func ExponentialBackoff(attempt int, base, cap time.Duration) time.Duration {
	if attempt <= 0 {
		return base
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	return d
}
