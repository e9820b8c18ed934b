package indexer

import (
	"context"
	"time"
)

const maxBackoff = 30 * time.Second

// retryPolicy reruns an RPC call with doubling delays, capped at maxBackoff.
type retryPolicy struct {
	retries int
	backoff time.Duration
}

func newRetryPolicy(retries int, backoff time.Duration) retryPolicy {
	if retries < 0 {
		retries = 0
	}
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	return retryPolicy{retries: retries, backoff: backoff}
}

func (p retryPolicy) delay(attempt int) time.Duration {
	d := p.backoff
	for i := 0; i < attempt && d < maxBackoff; i++ {
		d *= 2
	}
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

// do returns nil on the first success, or the last error once the retries
// are spent. Cancelling ctx stops the wait between attempts.
func (p retryPolicy) do(ctx context.Context, fn func(context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil || attempt >= p.retries {
			return err
		}

		timer := time.NewTimer(p.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
