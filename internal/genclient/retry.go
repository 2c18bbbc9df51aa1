package genclient

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/antoniostano/haven/internal/reliability"
)

const (
	retryAttempts = 3
	retryBase     = 200 * time.Millisecond
	retryCap      = 2 * time.Second
)

// RetryingClient retries transient provider failures with capped backoff.
// Non-retryable errors surface immediately.
type RetryingClient struct {
	inner Client
}

func WithRetries(inner Client) *RetryingClient {
	return &RetryingClient{inner: inner}
}

func (c *RetryingClient) Generate(ctx context.Context, system string, history []Message, input string) (any, error) {
	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			backoff := reliability.ExponentialBackoff(attempt-1, retryBase, retryCap)
			log.Warn().Err(lastErr).Int("attempt", attempt).Dur("backoff", backoff).
				Msg("generation failed, retrying")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		raw, err := c.inner.Generate(ctx, system, history, input)
		if err == nil {
			return raw, nil
		}
		if !reliability.IsRetryableGenerationError(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
