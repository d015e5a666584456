package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/Priya8975/subscription-reminders/internal/engine"
	"github.com/redis/go-redis/v9"
)

// Checker runs one reminder check.
type Checker interface {
	Check(ctx context.Context, req engine.CheckRequest) (*engine.CheckReport, error)
}

// Dispatcher continuously polls the Redis check queue and runs the ready
// checks one at a time.
type Dispatcher struct {
	queue        *engine.CheckQueue
	checker      Checker
	logger       *slog.Logger
	pollInterval time.Duration
	retryDelay   time.Duration
	batchSize    int64
	onReport     func(*engine.CheckReport)
}

// NewDispatcher creates a dispatcher that pulls from the check queue.
func NewDispatcher(queue *engine.CheckQueue, checker Checker, pollInterval time.Duration, logger *slog.Logger) *Dispatcher {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Dispatcher{
		queue:        queue,
		checker:      checker,
		logger:       logger,
		pollInterval: pollInterval,
		retryDelay:   time.Second,
		batchSize:    10,
	}
}

// OnReport registers a callback invoked after every completed check.
func (d *Dispatcher) OnReport(fn func(*engine.CheckReport)) {
	d.onReport = fn
}

// Start begins the polling loop. It runs until the context is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("check dispatcher started", "poll_interval", d.pollInterval.String())

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("check dispatcher stopping")
			return
		case <-ticker.C:
			d.poll(ctx)
		}
	}
}

// poll claims ready checks and runs them sequentially.
func (d *Dispatcher) poll(ctx context.Context) {
	client := d.queue.Client()

	results, err := client.ZRangeByScore(ctx, engine.CheckQueueKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   engine.QueueScore(time.Now()),
		Count: d.batchSize,
	}).Result()
	if err != nil {
		d.logger.Error("failed to poll check queue", "error", err)
		return
	}

	for _, member := range results {
		if ctx.Err() != nil {
			return
		}

		// ZRem returns 0 when another replica already claimed the request
		removed, err := client.ZRem(ctx, engine.CheckQueueKey, member).Result()
		if err != nil {
			d.logger.Error("failed to claim check request", "error", err)
			continue
		}
		if removed == 0 {
			continue
		}

		var req engine.CheckRequest
		if err := json.Unmarshal([]byte(member), &req); err != nil {
			d.logger.Error("failed to unmarshal check request", "error", err)
			continue
		}

		d.run(ctx, req)
	}
}

func (d *Dispatcher) run(ctx context.Context, req engine.CheckRequest) {
	report, err := d.checker.Check(ctx, req)
	if errors.Is(err, engine.ErrCheckInProgress) {
		d.logger.Info("check in progress elsewhere, requeueing", "request_id", req.ID)
		if err := d.queue.EnqueueAt(ctx, req, time.Now().Add(d.retryDelay)); err != nil {
			d.logger.Error("failed to requeue check", "request_id", req.ID, "error", err)
		}
		return
	}
	if err != nil {
		d.logger.Error("reminder check failed", "request_id", req.ID, "reason", req.Reason, "error", err)
		return
	}

	if d.onReport != nil {
		d.onReport(report)
	}
}
