package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// WriteLock serializes template writes across instances through a single
// Redis key. Whole-document replacements are not commutative, so writers
// take the lock for the duration of the mutation.
type WriteLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	wait   time.Duration
}

// New creates a WriteLock on the given Redis key (e.g. "valora:write_lock").
// ttl bounds how long a holder keeps the lock before auto-expiry, so a
// crashed writer cannot wedge the cluster; wait bounds how long Acquire
// blocks before giving up.
func New(client *redis.Client, key string, ttl, wait time.Duration) *WriteLock {
	return &WriteLock{
		client: client,
		key:    key,
		ttl:    ttl,
		wait:   wait,
	}
}

// Acquire takes the lock, polling with exponential backoff until it succeeds
// or the wait budget runs out. The returned token identifies this holder and
// must be passed back to Release.
func (l *WriteLock) Acquire(ctx context.Context) (string, error) {
	token := uuid.New().String()
	deadline := time.Now().Add(l.wait)
	backoff := 50 * time.Millisecond

	for {
		ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
		if err != nil {
			return "", fmt.Errorf("redis setnx: %w", err)
		}
		if ok {
			return token, nil
		}

		if time.Now().After(deadline) {
			return "", fmt.Errorf("template write lock still held after %s", l.wait)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}

		// exponential backoff, max 500ms
		backoff *= 2
		if backoff > 500*time.Millisecond {
			backoff = 500 * time.Millisecond
		}
	}
}

// releaseScript deletes the key only when it still carries this holder's
// token, so a writer whose ttl lapsed cannot release a successor's lock.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
else
    return 0
end
`)

// Release gives the lock back if token still owns it.
func (l *WriteLock) Release(ctx context.Context, token string) error {
	_, err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("release write lock: %w", err)
	}
	return nil
}
