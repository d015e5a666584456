package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Priya8975/subscription-reminders/internal/channel"
	"github.com/Priya8975/subscription-reminders/internal/engine"
)

func setupReceiver(t *testing.T, secret string) *httptest.Server {
	t.Helper()
	rc := &receiver{secret: secret, logger: slog.New(slog.NewJSONHandler(io.Discard, nil))}
	srv := httptest.NewServer(rc.routes())
	t.Cleanup(srv.Close)
	return srv
}

func reminder() engine.Notification {
	return engine.Notification{Title: "Subscription Reminder", Body: "Netflix renewal of 15.49 USD is tomorrow!", SubscriptionID: "42", Offset: 1, Tag: "notified_42_1"}
}

func TestReceiver_AcceptsSignedReminders(t *testing.T) {
	srv := setupReceiver(t, "s3cret")
	ch := channel.NewWebhookChannel(channel.WebhookConfig{URL: srv.URL + "/reminders/success", Secret: "s3cret"})

	if err := ch.Send(context.Background(), reminder()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := http.Get(srv.URL + "/stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	defer resp.Body.Close()

	var st statsResponse
	json.NewDecoder(resp.Body).Decode(&st)
	if st.TotalRequests != 1 || st.BadSignatures != 0 || len(st.RecentReminders) != 1 || st.RecentReminders[0] != "notified_42_1" {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestReceiver_RejectsWrongSecret(t *testing.T) {
	srv := setupReceiver(t, "s3cret")
	ch := channel.NewWebhookChannel(channel.WebhookConfig{URL: srv.URL + "/reminders/success", Secret: "wrong"})

	err := ch.Send(context.Background(), reminder())
	if !errors.Is(err, engine.ErrPermissionDenied) {
		t.Errorf("expected permission error for a bad signature, got %v", err)
	}
}

func TestReceiver_FailureRoutes(t *testing.T) {
	srv := setupReceiver(t, "")

	tests := []struct {
		path string
		want error
	}{
		{"/reminders/fail", engine.ErrChannelDeliveryFailed},
		{"/reminders/forbidden", engine.ErrPermissionDenied},
	}

	for _, tt := range tests {
		ch := channel.NewWebhookChannel(channel.WebhookConfig{URL: srv.URL + tt.path, Secret: "any"})
		if err := ch.Send(context.Background(), reminder()); !errors.Is(err, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.path, err, tt.want)
		}
	}
}
