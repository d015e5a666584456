package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Priya8975/subscription-reminders/internal/domain"
)

// SubscriptionSource loads what a check evaluates.
type SubscriptionSource interface {
	ListSubscriptions(ctx context.Context) ([]domain.Subscription, error)
	GetProfile(ctx context.Context) (domain.ReminderProfile, error)
}

// NotificationRecorder persists dispatch outcomes.
type NotificationRecorder interface {
	RecordNotification(ctx context.Context, rec domain.NotificationRecord) error
}

// ChannelSource resolves the channels available for a profile. Platform and
// permission detection lives behind it.
type ChannelSource interface {
	Channels(profile domain.ReminderProfile) []Channel
}

// Locker guards checks across processes.
type Locker interface {
	Acquire(ctx context.Context) (func(), error)
}

// CheckReport is the result of one Check run.
type CheckReport struct {
	RequestID string `json:"request_id"`
	Reason    string `json:"reason"`
	Force     bool   `json:"force"`
	Disabled  bool   `json:"disabled"`
	Today     string `json:"today"`
	Due       int    `json:"due"`
	DispatchResult
	// PromptPermission is set when nothing could be sent and the user never
	// granted system notifications; the UI should ask them to enable it.
	PromptPermission bool      `json:"prompt_permission"`
	CheckedAt        time.Time `json:"checked_at"`
}

// Checker runs evaluate-then-dispatch for the stored subscriptions.
type Checker struct {
	source     SubscriptionSource
	recorder   NotificationRecorder
	channels   ChannelSource
	dedup      DedupStore
	lock       Locker
	dispatcher *Dispatcher
	logger     *slog.Logger
	location   *time.Location
	now        func() time.Time

	mu sync.Mutex
}

// CheckerConfig wires a Checker. Recorder and Lock are optional.
type CheckerConfig struct {
	Source   SubscriptionSource
	Recorder NotificationRecorder
	Channels ChannelSource
	Dedup    DedupStore
	Lock     Locker
	Logger   *slog.Logger
	Location *time.Location
	Now      func() time.Time
}

func NewChecker(cfg CheckerConfig) *Checker {
	c := &Checker{
		source:   cfg.Source,
		recorder: cfg.Recorder,
		channels: cfg.Channels,
		dedup:    cfg.Dedup,
		lock:     cfg.Lock,
		logger:   cfg.Logger,
		location: cfg.Location,
		now:      cfg.Now,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.location == nil {
		c.location = time.Local
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.dispatcher = NewDispatcher(c.logger)
	return c
}

// Today returns the current time in the checker's zone.
func (c *Checker) Today() time.Time {
	return c.now().In(c.location)
}

// Check evaluates the stored subscriptions and dispatches the due reminders.
// Runs are serialized in-process and, when a Locker is set, across processes.
func (c *Checker) Check(ctx context.Context, req CheckRequest) (*CheckReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lock != nil {
		release, err := c.lock.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	today := c.Today()
	report := &CheckReport{
		RequestID: req.ID,
		Reason:    req.Reason,
		Force:     req.Force,
		Today:     FormatCalendarDate(today),
		DispatchResult: DispatchResult{
			Errors:   []DispatchError{},
			Outcomes: []EventOutcome{},
		},
		CheckedAt: c.now().UTC(),
	}

	profile, err := c.source.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	if !profile.NotificationsEnabled {
		c.logger.Info("notifications disabled, skipping check", "request_id", req.ID)
		report.Disabled = true
		return report, nil
	}

	subs, err := c.source.ListSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading subscriptions: %w", err)
	}

	events, err := Evaluate(today, subs, profile.ReminderDays, req.Force)
	if err != nil {
		return nil, fmt.Errorf("evaluating reminders: %w", err)
	}
	report.Due = len(events)

	if len(events) > 0 {
		channels := c.channels.Channels(profile)
		report.DispatchResult = c.dispatcher.Dispatch(ctx, events, channels, c.dedup, req.Force)
		c.record(ctx, req, report.Outcomes)
	}

	if report.Sent == 0 && len(report.Errors) > 0 && !profile.SystemNotificationsAllowed() {
		report.PromptPermission = true
	}

	c.logger.Info("reminder check complete",
		"request_id", req.ID,
		"reason", req.Reason,
		"force", req.Force,
		"today", report.Today,
		"subscriptions", len(subs),
		"due", report.Due,
		"sent", report.Sent,
		"skipped", report.Skipped,
		"errors", len(report.Errors),
	)

	return report, nil
}

// Preview evaluates the stored subscriptions for the given date without
// dispatching anything.
func (c *Checker) Preview(ctx context.Context, date time.Time, force bool) ([]domain.DueEvent, error) {
	profile, err := c.source.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	subs, err := c.source.ListSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading subscriptions: %w", err)
	}
	return Evaluate(date, subs, profile.ReminderDays, force)
}

func (c *Checker) record(ctx context.Context, req CheckRequest, outcomes []EventOutcome) {
	if c.recorder == nil {
		return
	}

	for _, o := range outcomes {
		if o.Status == OutcomeSkipped {
			continue
		}

		rec := domain.NotificationRecord{
			SubscriptionID:   o.Event.Subscription.ID,
			SubscriptionName: o.Event.Subscription.Name,
			Offset:           o.Event.Offset,
			Status:           domain.NotificationSent,
			Channels:         o.Channels,
			Forced:           req.Force,
		}
		if o.Status == OutcomeFailed {
			rec.Status = domain.NotificationFailed
			msg := o.Error
			rec.ErrorMessage = &msg
		}
		if rec.Channels == nil {
			rec.Channels = []string{}
		}

		if err := c.recorder.RecordNotification(ctx, rec); err != nil {
			c.logger.Error("failed to record notification",
				"error", err,
				"subscription_id", rec.SubscriptionID,
				"offset", rec.Offset,
			)
		}
	}
}

// ChannelResult is the outcome of one test send.
type ChannelResult struct {
	Channel string `json:"channel"`
	Kind    string `json:"kind"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

// TestReport lists what a test notification reached.
type TestReport struct {
	Permission string          `json:"permission"`
	Results    []ChannelResult `json:"results"`
}

// SendTest pushes a fixed test notification through every channel available
// to the profile. Dedup is not consulted and nothing is recorded.
func (c *Checker) SendTest(ctx context.Context) (*TestReport, error) {
	profile, err := c.source.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	n := Notification{
		Title: "SubTrack Test",
		Body:  "This is a test notification from SubTrack!",
		Tag:   "test-notification",
	}

	report := &TestReport{Permission: profile.Permission, Results: []ChannelResult{}}
	for _, ch := range c.channels.Channels(profile) {
		res := ChannelResult{Channel: ch.Name(), Kind: string(ch.Kind()), OK: true}
		if err := c.dispatcher.attempt(ctx, ch, n); err != nil {
			res.OK = false
			res.Error = err.Error()
		}
		report.Results = append(report.Results, res)
	}

	c.logger.Info("test notification sent", "channels", len(report.Results))
	return report, nil
}
