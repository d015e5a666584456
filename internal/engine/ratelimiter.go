package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a sliding-window limiter shared by every process talking to
// the same Redis. Channels use it to cap sends per target so a burst of due
// reminders does not flood a relay.
type RateLimiter struct {
	redisClient *redis.Client
	logger      *slog.Logger
	window      time.Duration
	script      *redis.Script
}

// Entries older than the window are trimmed, then the request is admitted
// only if the remaining count is under the limit.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)

if redis.call('ZCARD', key) < limit then
    redis.call('ZADD', key, now, member)
    redis.call('PEXPIRE', key, window + 1000)
    return 1
end
return 0
`)

func NewRateLimiter(redisClient *redis.Client, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		redisClient: redisClient,
		logger:      logger,
		window:      time.Second,
		script:      slidingWindowScript,
	}
}

func rlKey(target string) string {
	return fmt.Sprintf("rl:%s", target)
}

// Allow reports whether one more send to target fits in limit per window.
// A limit <= 0 disables limiting. Redis errors fail open.
func (rl *RateLimiter) Allow(ctx context.Context, target string, limit int) bool {
	if limit <= 0 {
		return true
	}

	now := time.Now()
	member := fmt.Sprintf("%d:%d", now.UnixMilli(), now.UnixNano())

	result, err := rl.script.Run(ctx, rl.redisClient, []string{rlKey(target)},
		now.UnixMilli(), rl.window.Milliseconds(), limit, member,
	).Int64()
	if err != nil {
		rl.logger.Error("rate limiter script failed", "error", err, "target", target)
		return true
	}

	if result == 0 {
		rl.logger.Debug("rate limited", "target", target, "limit", limit)
		return false
	}
	return true
}
