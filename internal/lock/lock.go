package lock

import (
	"context"
	"fmt"
	"time"

	"fitsync-schedule/pkg/response"
)

// Locker is an exclusive scope keyed by an arbitrary string. The scheduling
// coordinator keys it by trainer id, so operations on different trainers
// never contend.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

const retryInterval = 25 * time.Millisecond

// Acquire waits up to wait for the key's scope, polling the locker. It fails
// with response.ErrTimeout when the deadline passes without the lock being
// obtained, and with the context error when ctx is cancelled first.
func Acquire(ctx context.Context, l Locker, key string, ttl, wait time.Duration) error {
	const op = "lock.Acquire"

	deadline := time.Now().Add(wait)

	for {
		locked, err := l.Lock(ctx, key, ttl)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if locked {
			return nil
		}
		if !time.Now().Add(retryInterval).Before(deadline) {
			return fmt.Errorf("%s: %s: %w", op, key, response.ErrTimeout)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(retryInterval):
		}
	}
}
