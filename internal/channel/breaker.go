package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Priya8975/subscription-reminders/internal/engine"
	"github.com/sony/gobreaker/v2"
)

// BreakerSettings configures WithBreaker.
type BreakerSettings struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold uint32
	// Cooldown is how long the circuit stays open before a trial send.
	Cooldown time.Duration
	Logger   *slog.Logger
}

type breakerChannel struct {
	engine.Channel
	cb *gobreaker.CircuitBreaker[struct{}]
}

// WithBreaker wraps ch in a circuit breaker. While open, sends fail fast
// without reaching the adapter. Permission errors and cancelled contexts do
// not count against the channel.
func WithBreaker(ch engine.Channel, s BreakerSettings) engine.Channel {
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}
	if s.Cooldown <= 0 {
		s.Cooldown = 30 * time.Second
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:        ch.Name(),
		MaxRequests: 1,
		Timeout:     s.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.FailureThreshold
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, engine.ErrPermissionDenied) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("channel circuit breaker state changed",
				"channel", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &breakerChannel{
		Channel: ch,
		cb:      gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

func (b *breakerChannel) Send(ctx context.Context, n engine.Notification) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.Channel.Send(ctx, n)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s circuit open", engine.ErrChannelDeliveryFailed, b.Name())
	}
	return err
}

// State reports the breaker state for health endpoints.
func (b *breakerChannel) State() string {
	return b.cb.State().String()
}
