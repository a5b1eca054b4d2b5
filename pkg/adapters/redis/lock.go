package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"

	"github.com/techiemaya-admin/lad-onboarding/pkg/ports"
)

// unlockScript deletes the key only if it still holds our token.
var unlockScript = backend.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// Locker implements ports.DistributedLocker using Redis.
type Locker struct {
	client   *backend.Client
	prefix   string
	interval time.Duration
}

// LockerOption configures the Locker.
type LockerOption func(*Locker)

// WithPollInterval sets how often a blocked Lock retries.
func WithPollInterval(d time.Duration) LockerOption {
	return func(l *Locker) {
		l.interval = d
	}
}

// NewLocker creates a new Redis locker.
func NewLocker(client *backend.Client, prefix string, opts ...LockerOption) *Locker {
	l := &Locker{
		client:   client,
		prefix:   prefix,
		interval: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Locker) key(key string) string {
	return l.prefix + "lock:" + key
}

// TryLock makes a single SET NX PX attempt.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, bool, error) {
	lockKey := l.key(key)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis error acquiring lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	return func(ctx context.Context) error {
		return unlockScript.Run(ctx, l.client, []string{lockKey}, token).Err()
	}, true, nil
}

// Lock polls TryLock until the lock is acquired or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		unlock, ok, err := l.TryLock(ctx, key, ttl)
		if err != nil {
			return nil, err
		}
		if ok {
			return unlock, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
