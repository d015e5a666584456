package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Priya8975/subscription-reminders/internal/domain"
)

// Event outcome statuses.
const (
	OutcomeSent    = "sent"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// EventOutcome records what happened to a single due event.
type EventOutcome struct {
	Event    domain.DueEvent `json:"event"`
	Status   string          `json:"status"`
	Channels []string        `json:"channels,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// DispatchResult summarizes a dispatch call.
type DispatchResult struct {
	Sent     int             `json:"sent"`
	Skipped  int             `json:"skipped"`
	Errors   []DispatchError `json:"errors"`
	Outcomes []EventOutcome  `json:"outcomes"`
}

// Dispatcher sends due events through channels, suppressing pairs that were
// already notified.
//
// Events and channels are processed sequentially. Two concurrent Dispatch
// calls sharing a DedupStore may both send the same event; callers serialize
// them (see Checker).
type Dispatcher struct {
	logger *slog.Logger
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{logger: logger}
}

// Dispatch delivers each event through every channel in order. An event is
// marked notified in store when at least one channel succeeded; when all
// fail it stays eligible for the next call. With force set, existing dedup
// flags are ignored.
//
// Per-channel and per-event failures never abort the call; they are
// collected in the result.
func (d *Dispatcher) Dispatch(ctx context.Context, events []domain.DueEvent, channels []Channel, store DedupStore, force bool) DispatchResult {
	result := DispatchResult{
		Errors:   []DispatchError{},
		Outcomes: make([]EventOutcome, 0, len(events)),
	}

	for _, ev := range events {
		result.Outcomes = append(result.Outcomes, d.dispatchOne(ctx, ev, channels, store, force, &result))
	}

	d.logger.Info("dispatch complete",
		"events", len(events),
		"channels", len(channels),
		"sent", result.Sent,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
	)

	return result
}

func (d *Dispatcher) dispatchOne(ctx context.Context, ev domain.DueEvent, channels []Channel, store DedupStore, force bool, result *DispatchResult) EventOutcome {
	sub := ev.Subscription
	key := DedupKey(sub.ID, ev.Offset)
	outcome := EventOutcome{Event: ev}

	recordErr := func(channel string, err error) {
		result.Errors = append(result.Errors, DispatchError{
			SubscriptionID:   sub.ID,
			SubscriptionName: sub.Name,
			Channel:          channel,
			Kind:             kindOf(err),
			Message:          err.Error(),
		})
	}

	if !force {
		notified, err := store.Get(ctx, key)
		if err != nil {
			// Losing dedup state risks a duplicate, not a lost reminder.
			d.logger.Error("failed to read dedup flag", "error", err, "key", key)
			recordErr("store", fmt.Errorf("%w: reading %s: %v", ErrStoreUnavailable, key, err))
		} else if notified {
			d.logger.Debug("already notified", "subscription_id", sub.ID, "offset", ev.Offset)
			result.Skipped++
			outcome.Status = OutcomeSkipped
			return outcome
		}
	}

	n := NewNotification(ev)
	var failures []string

	for _, ch := range channels {
		start := time.Now()
		if err := d.attempt(ctx, ch, n); err != nil {
			d.logger.Warn("channel send failed",
				"subscription_id", sub.ID,
				"channel", ch.Name(),
				"offset", ev.Offset,
				"error", err,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			recordErr(ch.Name(), err)
			failures = append(failures, ch.Name()+": "+err.Error())
			continue
		}

		d.logger.Info("reminder sent",
			"subscription_id", sub.ID,
			"channel", ch.Name(),
			"offset", ev.Offset,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		outcome.Channels = append(outcome.Channels, ch.Name())
	}

	if len(outcome.Channels) == 0 {
		err := fmt.Errorf("%w: every channel failed for %s", ErrChannelDeliveryFailed, sub.Name)
		if len(channels) == 0 {
			err = ErrNoChannels
		}
		recordErr(ChannelAll, err)
		outcome.Status = OutcomeFailed
		outcome.Error = err.Error()
		if len(failures) > 0 {
			outcome.Error += " (" + strings.Join(failures, "; ") + ")"
		}
		return outcome
	}

	if err := store.Set(ctx, key, true); err != nil {
		d.logger.Error("failed to write dedup flag", "error", err, "key", key)
		recordErr("store", fmt.Errorf("%w: writing %s: %v", ErrStoreUnavailable, key, err))
	}

	result.Sent++
	outcome.Status = OutcomeSent
	return outcome
}

// attempt calls the channel, turning a panic into a delivery failure.
func (d *Dispatcher) attempt(ctx context.Context, ch Channel, n Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: channel panicked: %v", ErrChannelDeliveryFailed, r)
		}
	}()
	return ch.Send(ctx, n)
}
