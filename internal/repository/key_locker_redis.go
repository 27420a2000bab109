package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"invitely/eventhub/pkg/crypto"
)

const (
	lockKeyPrefix   = "lock:"
	lockRetryMin    = 5 * time.Millisecond
	lockRetryMax    = 200 * time.Millisecond
	lockReleaseWait = 2 * time.Second
)

// releaseScript deletes the lock only if it still carries our token, so an
// expired lock re-acquired by another process is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisKeyLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisKeyLocker shares the lock table across processes. ttl bounds how
// long a crashed holder can block a key.
func NewRedisKeyLocker(client *redis.Client, ttl time.Duration) KeyLocker {
	return &redisKeyLocker{client: client, ttl: ttl}
}

func (l *redisKeyLocker) Lock(ctx context.Context, key string) (func(), error) {
	token, err := crypto.GenerateRandomString(16)
	if err != nil {
		return nil, fmt.Errorf("generate lock token: %w", err)
	}
	lockKey := lockKeyPrefix + key

	wait := lockRetryMin
	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrLockTimeout, key, ctx.Err())
			}
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %s: %w", ErrLockTimeout, key, ctx.Err())
		case <-timer.C:
		}
		wait = min(wait*2, lockRetryMax)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The request context may already be cancelled; release regardless.
			rctx, cancel := context.WithTimeout(context.Background(), lockReleaseWait)
			defer cancel()
			_ = releaseScript.Run(rctx, l.client, []string{lockKey}, token).Err()
		})
	}, nil
}
