// Package redislock serializes writers of the same order across service instances with a
// Redis lease: SET NX PX to acquire, a compare-and-delete script to release.
package redislock

import (
	"context"
	"errors"
	"sync"
	"time"

	"pharmacy/internal/core/ports"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultTTL           = 30 * time.Second
	DefaultRetryInterval = 25 * time.Millisecond
	DefaultMaxWait       = 5 * time.Second

	keyPrefix = "pharmacy:lock:"
)

var (
	ErrLockTimeout = errors.New("timed out waiting for lock")
	ErrLockNotHeld = errors.New("lock expired before release")
)

// luaReleaseIfMatch deletes the lock only while it still carries our token, so an expired
// lease taken over by another writer is left alone.
const luaReleaseIfMatch = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`

var _ ports.OrderLocker = (*Locker)(nil)

type Locker struct {
	rdb           redis.Cmdable
	ttl           time.Duration
	retryInterval time.Duration
	maxWait       time.Duration
}

// NewLocker builds a locker. Non-positive durations fall back to the defaults.
func NewLocker(rdb redis.Cmdable, ttl, retryInterval, maxWait time.Duration) *Locker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if retryInterval <= 0 {
		retryInterval = DefaultRetryInterval
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &Locker{rdb: rdb, ttl: ttl, retryInterval: retryInterval, maxWait: maxWait}
}

// Lock polls until the lease for key is acquired. It gives up with ErrLockTimeout after
// maxWait and with the context error when ctx is done first.
func (l *Locker) Lock(ctx context.Context, key string) (func(context.Context) error, error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.maxWait)

	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.rdb.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, err
		}
		if ok {
			return l.unlockFunc(redisKey, token), nil
		}

		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *Locker) unlockFunc(redisKey, token string) func(context.Context) error {
	var (
		once sync.Once
		err  error
	)

	return func(ctx context.Context) error {
		once.Do(func() {
			var deleted int
			deleted, err = l.rdb.Eval(ctx, luaReleaseIfMatch, []string{redisKey}, token).Int()
			if err == nil && deleted == 0 {
				err = ErrLockNotHeld
			}
		})
		return err
	}
}
