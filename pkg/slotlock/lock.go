package slotlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when another process holds the lock
var ErrNotAcquired = errors.New("slot lock held by another instance")

// Locker guards the exists/create pair of a draw slot across processes
type Locker interface {
	// Acquire returns a release func, or ErrNotAcquired.
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// LocalLocker is used for single-instance deployments. The in-process
// single-flight guard already serializes draws, so it never blocks.
type LocalLocker struct{}

// Acquire always succeeds
func (LocalLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

// releaseScript deletes the key only if this holder still owns it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a SET NX PX lock shared by every scheduler instance
type RedisLocker struct {
	Client *redis.Client
	Prefix string
}

// NewRedisLocker creates a new RedisLocker
func NewRedisLocker(opt *redis.Options, prefix string) *RedisLocker {
	return &RedisLocker{Client: redis.NewClient(opt), Prefix: prefix}
}

// Ping checks connectivity at startup
func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.Client.Ping(ctx).Err()
}

// Close closes the redis client
func (l *RedisLocker) Close() error {
	return l.Client.Close()
}

// Acquire takes the lock for ttl
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	fullKey := l.Prefix + key
	token := uuid.NewString()
	ok, err := l.Client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire slot lock %s: %w", fullKey, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}
	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.Client, []string{fullKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to release slot lock %s: %w", fullKey, err)
		}
		return nil
	}, nil
}
