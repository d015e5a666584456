// Package channel holds the delivery adapters behind engine.Channel: the
// in-app popup over websocket, a signed webhook for web push relays, and a
// native push relay. It also builds the per-profile channel list.
package channel

import (
	"context"
	"fmt"
	"time"

	"github.com/Priya8975/subscription-reminders/internal/engine"
	ws "github.com/Priya8975/subscription-reminders/internal/websocket"
)

// Broadcaster pushes popups to open app windows.
type Broadcaster interface {
	Broadcast(event ws.PopupEvent) error
}

// PopupChannel shows reminders as in-app popups. It works on every platform
// but only reaches windows that are currently open.
type PopupChannel struct {
	hub Broadcaster
}

func NewPopupChannel(hub Broadcaster) *PopupChannel {
	return &PopupChannel{hub: hub}
}

func (p *PopupChannel) Name() string             { return "in_app_popup" }
func (p *PopupChannel) Kind() engine.ChannelKind { return engine.KindInApp }

func (p *PopupChannel) Send(_ context.Context, n engine.Notification) error {
	err := p.hub.Broadcast(ws.PopupEvent{
		Type:             "reminder",
		Title:            n.Title,
		Body:             n.Body,
		SubscriptionID:   n.SubscriptionID,
		SubscriptionName: n.SubscriptionName,
		DaysUntil:        n.Offset,
		Tag:              n.Tag,
		Timestamp:        time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("%w: popup: %v", engine.ErrChannelDeliveryFailed, err)
	}
	return nil
}
