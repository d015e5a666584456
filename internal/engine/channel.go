package engine

import (
	"context"
)

// ChannelKind identifies the delivery mechanism behind a Channel.
type ChannelKind string

const (
	KindNative  ChannelKind = "native"
	KindWebPush ChannelKind = "web_push"
	KindInApp   ChannelKind = "in_app"
)

// Notification is the message handed to a channel for one due event.
type Notification struct {
	Title            string `json:"title"`
	Body             string `json:"body"`
	SubscriptionID   string `json:"subscription_id"`
	SubscriptionName string `json:"subscription_name"`
	Offset           int    `json:"offset"`
	// Tag is the dedup key, so clients can collapse repeats.
	Tag string `json:"tag"`
}

// Channel delivers notifications to the user. A nil error means the message
// was shown (or accepted by the relay that shows it).
//
// Send must not block forever: adapters enforce their own timeouts, the
// dispatcher does not.
type Channel interface {
	Name() string
	Kind() ChannelKind
	Send(ctx context.Context, n Notification) error
}
