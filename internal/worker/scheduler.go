package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/Priya8975/subscription-reminders/internal/engine"
)

// Enqueuer accepts check requests.
type Enqueuer interface {
	Enqueue(ctx context.Context, req engine.CheckRequest) error
}

// Scheduler queues a periodic, non-forced check. One is queued immediately
// on start so reminders go out right after a restart.
type Scheduler struct {
	queue    Enqueuer
	interval time.Duration
	logger   *slog.Logger
}

func NewScheduler(queue Enqueuer, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{queue: queue, interval: interval, logger: logger}
}

// Start runs until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("check scheduler started", "interval", s.interval.String())
	s.enqueue(ctx, "startup")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("check scheduler stopping")
			return
		case <-ticker.C:
			s.enqueue(ctx, "interval")
		}
	}
}

func (s *Scheduler) enqueue(ctx context.Context, reason string) {
	if err := s.queue.Enqueue(ctx, engine.NewCheckRequest(reason, false)); err != nil {
		s.logger.Error("failed to queue periodic check", "reason", reason, "error", err)
	}
}
