package channel

import (
	"context"
	"fmt"

	"github.com/Priya8975/subscription-reminders/internal/domain"
	"github.com/Priya8975/subscription-reminders/internal/engine"
)

// Resolver decides which configured channels a profile may use. The popup
// always comes first. System channels (native push, web push) follow; until
// the user grants notification permission they are gated and fail every send
// with ErrPermissionDenied.
type Resolver struct {
	popup  engine.Channel
	system []engine.Channel
}

// NewResolver takes the popup channel and the system channels in the order
// they should be tried. Nil channels are ignored.
func NewResolver(popup engine.Channel, system ...engine.Channel) *Resolver {
	r := &Resolver{popup: popup}
	for _, ch := range system {
		if ch != nil {
			r.system = append(r.system, ch)
		}
	}
	return r
}

func (r *Resolver) Channels(profile domain.ReminderProfile) []engine.Channel {
	var channels []engine.Channel
	if r.popup != nil {
		channels = append(channels, r.popup)
	}
	for _, ch := range r.system {
		if !profile.SystemNotificationsAllowed() {
			ch = gated{Channel: ch, permission: profile.Permission}
		}
		channels = append(channels, ch)
	}
	return channels
}

// gated stands in for a system channel the user has not authorized.
type gated struct {
	engine.Channel
	permission string
}

func (g gated) Send(context.Context, engine.Notification) error {
	return fmt.Errorf("%w: %s needs notification permission (currently %q)",
		engine.ErrPermissionDenied, g.Name(), g.permission)
}

// ChannelStatus is a snapshot of one configured channel.
type ChannelStatus struct {
	Name    string             `json:"name"`
	Kind    engine.ChannelKind `json:"kind"`
	Breaker string             `json:"breaker,omitempty"`
}

// Status lists every configured channel with its breaker state, if any.
func (r *Resolver) Status() []ChannelStatus {
	all := make([]engine.Channel, 0, len(r.system)+1)
	if r.popup != nil {
		all = append(all, r.popup)
	}
	all = append(all, r.system...)

	statuses := make([]ChannelStatus, 0, len(all))
	for _, ch := range all {
		st := ChannelStatus{Name: ch.Name(), Kind: ch.Kind()}
		if b, ok := ch.(interface{ State() string }); ok {
			st.Breaker = b.State()
		}
		statuses = append(statuses, st)
	}
	return statuses
}
