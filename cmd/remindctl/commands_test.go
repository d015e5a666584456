package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Priya8975/subscription-reminders/internal/domain"
	"github.com/Priya8975/subscription-reminders/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePreviewer struct {
	events []domain.DueEvent
	date   time.Time
	force  bool
}

func (f *fakePreviewer) Today() time.Time {
	return time.Date(2025, 6, 7, 8, 0, 0, 0, time.UTC)
}

func (f *fakePreviewer) Preview(_ context.Context, date time.Time, force bool) ([]domain.DueEvent, error) {
	f.date, f.force = date, force
	return f.events, nil
}

type fakeQueue struct {
	reqs []engine.CheckRequest
}

func (f *fakeQueue) Enqueue(_ context.Context, req engine.CheckRequest) error {
	f.reqs = append(f.reqs, req)
	return nil
}

type fakeDedup struct {
	cleared []string
	all     bool
}

func (f *fakeDedup) ClearSubscription(_ context.Context, id string) (int, error) {
	f.cleared = append(f.cleared, id)
	return 2, nil
}

func (f *fakeDedup) ClearAll(context.Context) (int, error) {
	f.all = true
	return 5, nil
}

type harness struct {
	preview *fakePreviewer
	queue   *fakeQueue
	dedup   *fakeDedup
	closed  bool
}

func run(t *testing.T, h *harness, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(func(context.Context) (*app, error) {
		return &app{
			checker: h.preview,
			queue:   h.queue,
			dedup:   h.dedup,
			close:   func() { h.closed = true },
		}, nil
	})

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func newHarness() *harness {
	return &harness{preview: &fakePreviewer{}, queue: &fakeQueue{}, dedup: &fakeDedup{}}
}

func TestDue_Today(t *testing.T) {
	h := newHarness()
	h.preview.events = []domain.DueEvent{{
		Subscription: domain.Subscription{ID: "42", Name: "Netflix", Cost: "15.49", Currency: "USD"},
		Offset:       3,
	}}

	out, err := run(t, h, "due")
	require.NoError(t, err)

	assert.Contains(t, out, "Reminders due on 2025-06-07")
	assert.Contains(t, out, "Netflix renewal of 15.49 USD is in 3 days!")
	assert.False(t, h.preview.force)
	assert.True(t, h.closed, "connections should be closed after the command")
}

func TestDue_DateAndForce(t *testing.T) {
	h := newHarness()

	out, err := run(t, h, "due", "--date", "2025-12-24", "--force")
	require.NoError(t, err)

	assert.Equal(t, "2025-12-24", engine.FormatCalendarDate(h.preview.date))
	assert.True(t, h.preview.force)
	assert.Contains(t, out, "none")
}

func TestDue_JSON(t *testing.T) {
	h := newHarness()
	h.preview.events = []domain.DueEvent{{Subscription: domain.Subscription{ID: "7"}, Offset: 0, Forced: true}}

	out, err := run(t, h, "due", "--json")
	require.NoError(t, err)

	var events []domain.DueEvent
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	require.Len(t, events, 1)
	assert.True(t, events[0].Forced)
}

func TestDue_InvalidDate(t *testing.T) {
	_, err := run(t, newHarness(), "due", "--date", "06/07/2025")
	assert.Error(t, err)
}

func TestCheck_Queues(t *testing.T) {
	h := newHarness()

	out, err := run(t, h, "check", "--force")
	require.NoError(t, err)

	require.Len(t, h.queue.reqs, 1)
	assert.True(t, h.queue.reqs[0].Force)
	assert.Equal(t, "cli", h.queue.reqs[0].Reason)
	assert.Contains(t, out, h.queue.reqs[0].ID)
}

func TestClear(t *testing.T) {
	h := newHarness()

	out, err := run(t, h, "clear", "42")
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, h.dedup.cleared)
	assert.Contains(t, out, "cleared 2")

	out, err = run(t, h, "clear", "--all")
	require.NoError(t, err)
	assert.True(t, h.dedup.all)
	assert.Contains(t, out, "cleared 5")
}

func TestClear_ArgValidation(t *testing.T) {
	_, err := run(t, newHarness(), "clear")
	assert.Error(t, err)

	_, err = run(t, newHarness(), "clear", "42", "--all")
	assert.Error(t, err)
}

func TestOpenFailure(t *testing.T) {
	root := newRootCmd(func(context.Context) (*app, error) {
		return nil, errors.New("DATABASE_URL is required")
	})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"check"})

	err := root.Execute()
	assert.EqualError(t, err, "DATABASE_URL is required")
}
