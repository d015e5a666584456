package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const CheckLockKey = "reminder_check_lock"

// ErrCheckInProgress is returned when another process holds the check lock.
var ErrCheckInProgress = errors.New("reminder check already in progress")

// releaseScript deletes the lock only if we still own it.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisLock is a best-effort cross-process mutex around reminder checks.
type RedisLock struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewRedisLock(redisClient *redis.Client, ttl time.Duration) *RedisLock {
	return &RedisLock{redisClient: redisClient, ttl: ttl}
}

// Acquire takes the lock or returns ErrCheckInProgress. The returned func
// releases it.
func (l *RedisLock) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()

	ok, err := l.redisClient.SetNX(ctx, CheckLockKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquiring check lock: %w", err)
	}
	if !ok {
		return nil, ErrCheckInProgress
	}

	return func() {
		// Use a fresh context: the caller's may already be cancelled.
		releaseScript.Run(context.Background(), l.redisClient, []string{CheckLockKey}, token)
	}, nil
}
