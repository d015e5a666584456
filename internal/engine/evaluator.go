package engine

import (
	"fmt"
	"time"

	"github.com/Priya8975/subscription-reminders/internal/domain"
)

// Evaluate returns the subscriptions whose next billing date is one of days
// away from today. Subscriptions without a billing date are skipped; dates in
// the past never match.
//
// With force set, a subscription billing today is also returned even when 0 is
// not a configured reminder day. Such events carry Forced=true so callers can
// tell the variant output apart.
//
// Evaluate has no side effects. The order of the result is unspecified.
func Evaluate(today time.Time, subs []domain.Subscription, days domain.ReminderDays, force bool) ([]domain.DueEvent, error) {
	var due []domain.DueEvent

	for _, sub := range subs {
		if sub.NextBillingDate == "" {
			continue
		}

		billing, err := ParseCalendarDate(sub.NextBillingDate)
		if err != nil {
			return nil, fmt.Errorf("subscription %s: %w", sub.ID, err)
		}

		daysUntil := DaysUntil(billing, today)
		switch {
		case daysUntil < 0:
			continue
		case days.Contains(daysUntil):
			due = append(due, domain.DueEvent{Subscription: sub, Offset: daysUntil})
		case force && daysUntil == 0:
			due = append(due, domain.DueEvent{Subscription: sub, Offset: 0, Forced: true})
		}
	}

	return due, nil
}
