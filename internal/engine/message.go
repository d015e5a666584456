package engine

import (
	"fmt"

	"github.com/Priya8975/subscription-reminders/internal/domain"
)

const reminderTitle = "Subscription Reminder"

// NewNotification builds the reminder message for a due event.
func NewNotification(ev domain.DueEvent) Notification {
	sub := ev.Subscription
	return Notification{
		Title:            reminderTitle,
		Body:             fmt.Sprintf("%s renewal of %s %s is %s!", sub.Name, sub.Cost, sub.Currency, whenText(ev.Offset)),
		SubscriptionID:   sub.ID,
		SubscriptionName: sub.Name,
		Offset:           ev.Offset,
		Tag:              DedupKey(sub.ID, ev.Offset),
	}
}

func whenText(offset int) string {
	switch offset {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", offset)
	}
}
