package retry

import (
	"context"
	"time"
)

// Do runs f until it succeeds, up to attempts times, sleeping backoff
// between tries. Only safe for idempotent operations. Returns the last
// error, or the context error if cancelled while waiting.
func Do(ctx context.Context, attempts int, backoff time.Duration, f func() error) error {
	var err error

	for i := 0; i < attempts; i++ {
		if err = f(); err == nil {
			return nil
		}

		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return err
}
