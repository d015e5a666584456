package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const CheckQueueKey = "check_queue"

// CheckRequest asks for one reminder check. Force bypasses dedup and also
// reports subscriptions billing today.
type CheckRequest struct {
	ID          string    `json:"id"`
	Force       bool      `json:"force"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewCheckRequest stamps a request with an id and the current time.
func NewCheckRequest(reason string, force bool) CheckRequest {
	return CheckRequest{
		ID:          uuid.NewString(),
		Force:       force,
		Reason:      reason,
		RequestedAt: time.Now().UTC(),
	}
}

// CheckQueue funnels every check trigger (timer, saves, API, CLI) into a
// Redis sorted set so a single poller runs them one at a time.
type CheckQueue struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

func NewCheckQueue(redisClient *redis.Client, logger *slog.Logger) *CheckQueue {
	return &CheckQueue{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Enqueue schedules req to run as soon as the poller picks it up.
func (q *CheckQueue) Enqueue(ctx context.Context, req CheckRequest) error {
	return q.EnqueueAt(ctx, req, time.Now())
}

// EnqueueAt schedules req to become ready at the given time.
func (q *CheckQueue) EnqueueAt(ctx context.Context, req CheckRequest, at time.Time) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling check request: %w", err)
	}

	err = q.redisClient.ZAdd(ctx, CheckQueueKey, redis.Z{
		Score:  float64(at.UnixMicro()),
		Member: string(data),
	}).Err()
	if err != nil {
		return fmt.Errorf("queuing check request: %w", err)
	}

	q.logger.Info("check queued",
		"request_id", req.ID,
		"reason", req.Reason,
		"force", req.Force,
	)
	return nil
}

// Depth returns the number of checks waiting in the queue.
func (q *CheckQueue) Depth(ctx context.Context) (int64, error) {
	return q.redisClient.ZCard(ctx, CheckQueueKey).Result()
}

// Client exposes the Redis client for the poller.
func (q *CheckQueue) Client() *redis.Client {
	return q.redisClient
}

// QueueScore renders t as a ZRANGEBYSCORE bound for the check queue.
func QueueScore(t time.Time) string {
	return strconv.FormatInt(t.UnixMicro(), 10)
}
