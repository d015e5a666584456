package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/Priya8975/subscription-reminders/internal/domain"
)

type fakeChannel struct {
	name   string
	kind   ChannelKind
	err    error
	panics bool
	sent   []Notification
}

func (f *fakeChannel) Name() string      { return f.name }
func (f *fakeChannel) Kind() ChannelKind { return f.kind }

func (f *fakeChannel) Send(_ context.Context, n Notification) error {
	if f.panics {
		panic("adapter bug")
	}
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

type brokenStore struct {
	getErr error
	setErr error
	flags  map[string]bool
}

func (b *brokenStore) Get(_ context.Context, key string) (bool, error) {
	if b.getErr != nil {
		return false, b.getErr
	}
	return b.flags[key], nil
}

func (b *brokenStore) Set(_ context.Context, key string, value bool) error {
	if b.setErr != nil {
		return b.setErr
	}
	if b.flags == nil {
		b.flags = map[string]bool{}
	}
	b.flags[key] = value
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func dueEvents(n int) []domain.DueEvent {
	events := make([]domain.DueEvent, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, domain.DueEvent{Subscription: sub(fmt.Sprintf("sub-%d", i), "2025-06-10"), Offset: 3})
	}
	return events
}

func TestDispatch_Idempotent(t *testing.T) {
	d := NewDispatcher(testLogger())
	store := NewMemoryDedupStore()
	ch := &fakeChannel{name: "popup", kind: KindInApp}
	ctx := context.Background()
	events := dueEvents(4)

	first := d.Dispatch(ctx, events, []Channel{ch}, store, false)
	if first.Sent != 4 || first.Skipped != 0 {
		t.Fatalf("first call: sent=%d skipped=%d, want 4/0", first.Sent, first.Skipped)
	}

	second := d.Dispatch(ctx, events, []Channel{ch}, store, false)
	if second.Sent != 0 || second.Skipped != 4 {
		t.Errorf("second call: sent=%d skipped=%d, want 0/4", second.Sent, second.Skipped)
	}
	if len(ch.sent) != 4 {
		t.Errorf("channel called %d times, want 4", len(ch.sent))
	}
	if len(second.Errors) != 0 {
		t.Errorf("unexpected errors: %+v", second.Errors)
	}
}

func TestDispatch_Scenario(t *testing.T) {
	d := NewDispatcher(testLogger())
	store := NewMemoryDedupStore()
	ch := &fakeChannel{name: "popup", kind: KindInApp}
	ctx := context.Background()

	events := []domain.DueEvent{{Subscription: sub("42", "2025-06-10"), Offset: 3}}

	res := d.Dispatch(ctx, events, []Channel{ch}, store, false)
	if res.Sent != 1 {
		t.Fatalf("sent = %d, want 1", res.Sent)
	}
	if ok, _ := store.Get(ctx, "notified_42_3"); !ok {
		t.Error("expected notified_42_3 to be set")
	}

	res = d.Dispatch(ctx, events, []Channel{ch}, store, false)
	if res.Sent != 0 || res.Skipped != 1 {
		t.Errorf("rerun: sent=%d skipped=%d, want 0/1", res.Sent, res.Skipped)
	}
}

func TestDispatch_PartialChannelFailure(t *testing.T) {
	d := NewDispatcher(testLogger())
	store := NewMemoryDedupStore()
	broken := &fakeChannel{name: "native", kind: KindNative, err: fmt.Errorf("%w: relay down", ErrChannelDeliveryFailed)}
	working := &fakeChannel{name: "popup", kind: KindInApp}
	ctx := context.Background()

	res := d.Dispatch(ctx, dueEvents(2), []Channel{broken, working}, store, false)

	if res.Sent != 2 {
		t.Errorf("sent = %d, want 2", res.Sent)
	}
	if len(working.sent) != 2 {
		t.Errorf("working channel called %d times, want 2", len(working.sent))
	}
	if len(res.Errors) != 2 {
		t.Fatalf("expected one error per event, got %+v", res.Errors)
	}
	for _, e := range res.Errors {
		if e.Channel != "native" || e.Kind != KindChannelDeliveryFailed {
			t.Errorf("unexpected error entry: %+v", e)
		}
	}
	if store.Len() != 2 {
		t.Errorf("expected 2 dedup flags, got %d", store.Len())
	}
}

func TestDispatch_PanickingChannelIsContained(t *testing.T) {
	d := NewDispatcher(testLogger())
	store := NewMemoryDedupStore()
	bad := &fakeChannel{name: "web", kind: KindWebPush, panics: true}
	good := &fakeChannel{name: "popup", kind: KindInApp}

	res := d.Dispatch(context.Background(), dueEvents(1), []Channel{bad, good}, store, false)

	if res.Sent != 1 {
		t.Errorf("sent = %d, want 1", res.Sent)
	}
	if len(res.Errors) != 1 || res.Errors[0].Channel != "web" || res.Errors[0].Kind != KindChannelDeliveryFailed {
		t.Errorf("expected one delivery error for the panicking channel, got %+v", res.Errors)
	}
}

func TestDispatch_AllChannelsFailLeavesEventEligible(t *testing.T) {
	d := NewDispatcher(testLogger())
	store := NewMemoryDedupStore()
	denied := &fakeChannel{name: "native", kind: KindNative, err: ErrPermissionDenied}
	failing := &fakeChannel{name: "popup", kind: KindInApp, err: errors.New("no clients")}
	ctx := context.Background()
	events := dueEvents(1)

	res := d.Dispatch(ctx, events, []Channel{denied, failing}, store, false)
	if res.Sent != 0 {
		t.Errorf("sent = %d, want 0", res.Sent)
	}
	if len(res.Errors) != 3 {
		t.Fatalf("expected two channel errors plus an aggregate, got %+v", res.Errors)
	}
	if res.Errors[0].Kind != KindPermissionDenied {
		t.Errorf("first error kind = %s, want %s", res.Errors[0].Kind, KindPermissionDenied)
	}
	if res.Errors[2].Channel != ChannelAll {
		t.Errorf("last error channel = %s, want %s", res.Errors[2].Channel, ChannelAll)
	}
	if res.Outcomes[0].Status != OutcomeFailed {
		t.Errorf("outcome status = %s, want %s", res.Outcomes[0].Status, OutcomeFailed)
	}
	if store.Len() != 0 {
		t.Error("dedup store should not be updated when every channel failed")
	}

	// Channel recovers: the next non-forced dispatch retries the event.
	failing.err = nil
	res = d.Dispatch(ctx, events, []Channel{denied, failing}, store, false)
	if res.Sent != 1 || res.Skipped != 0 {
		t.Errorf("retry: sent=%d skipped=%d, want 1/0", res.Sent, res.Skipped)
	}
}

func TestDispatch_NoChannels(t *testing.T) {
	d := NewDispatcher(testLogger())
	store := NewMemoryDedupStore()

	res := d.Dispatch(context.Background(), dueEvents(2), nil, store, false)

	if res.Sent != 0 {
		t.Errorf("sent = %d, want 0", res.Sent)
	}
	if len(res.Errors) != 2 {
		t.Fatalf("expected one aggregate error per event, got %+v", res.Errors)
	}
	if res.Errors[0].Message != ErrNoChannels.Error() {
		t.Errorf("error message = %q, want %q", res.Errors[0].Message, ErrNoChannels.Error())
	}
}

func TestDispatch_ForceBypassesDedup(t *testing.T) {
	d := NewDispatcher(testLogger())
	store := NewMemoryDedupStore()
	ch := &fakeChannel{name: "popup", kind: KindInApp}
	ctx := context.Background()
	events := dueEvents(1)

	d.Dispatch(ctx, events, []Channel{ch}, store, false)
	res := d.Dispatch(ctx, events, []Channel{ch}, store, true)

	if res.Sent != 1 || res.Skipped != 0 {
		t.Errorf("forced: sent=%d skipped=%d, want 1/0", res.Sent, res.Skipped)
	}
	if len(ch.sent) != 2 {
		t.Errorf("channel called %d times, want 2", len(ch.sent))
	}
}

func TestDispatch_StoreReadFailureStillSends(t *testing.T) {
	d := NewDispatcher(testLogger())
	store := &brokenStore{getErr: errors.New("connection refused")}
	ch := &fakeChannel{name: "popup", kind: KindInApp}

	res := d.Dispatch(context.Background(), dueEvents(1), []Channel{ch}, store, false)

	if res.Sent != 1 {
		t.Errorf("sent = %d, want 1", res.Sent)
	}
	if len(res.Errors) != 1 || res.Errors[0].Kind != KindStoreUnavailable {
		t.Errorf("expected one store_unavailable error, got %+v", res.Errors)
	}
}

func TestDispatch_StoreWriteFailureCountsAsSent(t *testing.T) {
	d := NewDispatcher(testLogger())
	store := &brokenStore{setErr: errors.New("read-only replica")}
	ch := &fakeChannel{name: "popup", kind: KindInApp}

	res := d.Dispatch(context.Background(), dueEvents(3), []Channel{ch}, store, false)

	if res.Sent != 3 {
		t.Errorf("sent = %d, want 3", res.Sent)
	}
	if len(res.Errors) != 3 {
		t.Fatalf("expected a store error per event, got %+v", res.Errors)
	}
	for _, e := range res.Errors {
		if e.Kind != KindStoreUnavailable || e.Channel != "store" {
			t.Errorf("unexpected error entry: %+v", e)
		}
	}
}

func TestDispatch_NotificationContent(t *testing.T) {
	d := NewDispatcher(testLogger())
	ch := &fakeChannel{name: "popup", kind: KindInApp}
	s := domain.Subscription{ID: "7", Name: "Netflix", Cost: "15.49", Currency: "USD", NextBillingDate: "2025-06-08"}

	d.Dispatch(context.Background(), []domain.DueEvent{{Subscription: s, Offset: 1}}, []Channel{ch}, NewMemoryDedupStore(), false)

	if len(ch.sent) != 1 {
		t.Fatalf("expected one notification, got %d", len(ch.sent))
	}
	n := ch.sent[0]
	if n.Title != "Subscription Reminder" {
		t.Errorf("title = %q", n.Title)
	}
	if n.Body != "Netflix renewal of 15.49 USD is tomorrow!" {
		t.Errorf("body = %q", n.Body)
	}
	if n.Tag != "notified_7_1" || n.SubscriptionName != "Netflix" {
		t.Errorf("unexpected metadata: %+v", n)
	}
}

func TestNewNotification_WhenText(t *testing.T) {
	tests := []struct {
		offset int
		want   string
	}{
		{0, "Gym renewal of 30 EUR is today!"},
		{1, "Gym renewal of 30 EUR is tomorrow!"},
		{7, "Gym renewal of 30 EUR is in 7 days!"},
	}

	for _, tt := range tests {
		s := domain.Subscription{ID: "g", Name: "Gym", Cost: "30", Currency: "EUR"}
		n := NewNotification(domain.DueEvent{Subscription: s, Offset: tt.offset})
		if n.Body != tt.want {
			t.Errorf("offset %d: body = %q, want %q", tt.offset, n.Body, tt.want)
		}
	}
}
