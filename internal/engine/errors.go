package engine

import (
	"errors"
)

// ErrorKind classifies a dispatch failure.
type ErrorKind string

const (
	KindPermissionDenied      ErrorKind = "permission_denied"
	KindChannelDeliveryFailed ErrorKind = "channel_delivery_failed"
	KindStoreUnavailable      ErrorKind = "store_unavailable"
)

var (
	// ErrPermissionDenied is returned by channels the user has not authorized.
	ErrPermissionDenied = errors.New("notification permission denied")
	// ErrChannelDeliveryFailed is returned by channels that could not show the message.
	ErrChannelDeliveryFailed = errors.New("channel delivery failed")
	// ErrStoreUnavailable wraps dedup store read/write failures.
	ErrStoreUnavailable = errors.New("dedup store unavailable")
	// ErrNoChannels is recorded when an event had nothing to be sent through.
	ErrNoChannels = errors.New("no notification channels available")
	// ErrInvalidBillingDate is returned for dates that are not YYYY-MM-DD.
	ErrInvalidBillingDate = errors.New("invalid billing date")
)

// ChannelAll names the aggregate error recorded when every channel failed.
const ChannelAll = "all"

// DispatchError describes one failure captured during a dispatch call.
type DispatchError struct {
	SubscriptionID   string    `json:"subscription_id"`
	SubscriptionName string    `json:"subscription_name"`
	Channel          string    `json:"channel"`
	Kind             ErrorKind `json:"kind"`
	Message          string    `json:"error"`
}

// kindOf maps a channel or store error onto the dispatch taxonomy.
func kindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ErrStoreUnavailable):
		return KindStoreUnavailable
	default:
		return KindChannelDeliveryFailed
	}
}
