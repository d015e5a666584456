package domain

import (
	"time"
)

// DueEvent is a subscription whose billing date is exactly Offset days away.
// Forced marks an offset-0 event emitted only because a force check asked for
// it, not because 0 is a configured reminder day.
type DueEvent struct {
	Subscription Subscription `json:"subscription"`
	Offset       int          `json:"offset"`
	Forced       bool         `json:"forced,omitempty"`
}

// Notification log statuses.
const (
	NotificationSent   = "sent"
	NotificationFailed = "failed"
)

// NotificationRecord is one persisted outcome of a reminder dispatch.
type NotificationRecord struct {
	ID               string    `json:"id"`
	SubscriptionID   string    `json:"subscription_id"`
	SubscriptionName string    `json:"subscription_name"`
	Offset           int       `json:"offset"`
	Status           string    `json:"status"`
	Channels         []string  `json:"channels"`
	ErrorMessage     *string   `json:"error_message,omitempty"`
	Forced           bool      `json:"forced"`
	CreatedAt        time.Time `json:"created_at"`
}
