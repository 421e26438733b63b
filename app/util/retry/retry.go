package retry

import (
	"context"
	"log/slog"

	"github.com/cenkalti/backoff/v4"
)

// Do runs action until it succeeds or has been tried attempts times, with no
// delay between tries. Each failure is logged. The returned error is the last
// failure, or the context error if ctx ended first.
func Do(ctx context.Context, attempts int, action func(attempt int) error) error {
	if attempts < 1 {
		attempts = 1
	}

	attempt := 0
	operation := func() error {
		attempt++

		err := action(attempt)
		if err != nil {
			slog.Warn("Attempt failed",
				"attempt", attempt,
				"attempts", attempts,
				"error", err)
		}

		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(attempts-1)),
		ctx,
	)

	return backoff.Retry(operation, policy)
}
