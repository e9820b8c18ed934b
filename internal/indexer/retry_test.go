package indexer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicyDelay(t *testing.T) {
	p := newRetryPolicy(3, time.Second)
	assert.Equal(t, time.Second, p.delay(0))
	assert.Equal(t, 4*time.Second, p.delay(2))
	assert.Equal(t, maxBackoff, p.delay(10))

	p = newRetryPolicy(-1, 0)
	assert.Equal(t, 0, p.retries)
	assert.Equal(t, 100*time.Millisecond, p.backoff)
}

func TestRetryPolicyDo(t *testing.T) {
	calls := 0
	err := newRetryPolicy(2, time.Millisecond).do(context.Background(), func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("flaky")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	boom := errors.New("boom")
	err = newRetryPolicy(2, time.Millisecond).do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicyStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := newRetryPolicy(5, time.Hour).do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.New("down")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
