package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Priya8975/subscription-reminders/internal/channel"
	"github.com/Priya8975/subscription-reminders/internal/domain"
	"github.com/Priya8975/subscription-reminders/internal/engine"
	"github.com/Priya8975/subscription-reminders/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Store is the persistence the handlers need.
type Store interface {
	CreateSubscription(ctx context.Context, req domain.CreateSubscriptionRequest) (*domain.Subscription, error)
	GetSubscription(ctx context.Context, id string) (*domain.Subscription, error)
	ListSubscriptions(ctx context.Context) ([]domain.Subscription, error)
	UpdateSubscription(ctx context.Context, id string, req domain.UpdateSubscriptionRequest) (*domain.Subscription, error)
	DeleteSubscription(ctx context.Context, id string) (bool, error)

	GetProfile(ctx context.Context) (domain.ReminderProfile, error)
	SaveProfile(ctx context.Context, p domain.ReminderProfile) (domain.ReminderProfile, error)

	ListNotifications(ctx context.Context, subscriptionID string, limit int) ([]domain.NotificationRecord, error)
	GetNotificationMetrics(ctx context.Context) (*store.NotificationMetrics, error)
}

// CheckQueue accepts check requests.
type CheckQueue interface {
	Enqueue(ctx context.Context, req engine.CheckRequest) error
	Depth(ctx context.Context) (int64, error)
}

// DedupClearer drops dedup flags for one subscription.
type DedupClearer interface {
	ClearSubscription(ctx context.Context, subscriptionID string) (int, error)
}

// Checker previews due reminders and sends test notifications.
type Checker interface {
	Today() time.Time
	Preview(ctx context.Context, date time.Time, force bool) ([]domain.DueEvent, error)
	SendTest(ctx context.Context) (*engine.TestReport, error)
}

// ChannelStatus reports the configured channels.
type ChannelStatus interface {
	Status() []channel.ChannelStatus
}

// WebSocketHub serves the popup websocket.
type WebSocketHub interface {
	HandleWebSocket(w http.ResponseWriter, r *http.Request)
	ClientCount() int
	PendingCount() int
}

// Deps wires the router. Health checks are optional.
type Deps struct {
	Store    Store
	Queue    CheckQueue
	Dedup    DedupClearer
	Checker  Checker
	Channels ChannelStatus
	Hub      WebSocketHub
	Health   []HealthCheck
	Logger   *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	r.Use(corsMiddleware)

	subHandler := NewSubscriptionHandler(d.Store, d.Queue, d.Dedup, d.Checker, d.Logger)
	profileHandler := NewProfileHandler(d.Store, d.Queue, d.Logger)
	reminderHandler := NewReminderHandler(d.Checker, d.Queue)
	notificationHandler := NewNotificationHandler(d.Store, d.Checker)
	analyticsHandler := NewAnalyticsHandler(d.Store)
	backupHandler := NewBackupHandler(d.Store)
	dashHandler := NewDashboardHandler(d.Store, d.Queue, d.Channels, d.Hub)

	// WebSocket endpoint for in-app popups
	r.Get("/ws", d.Hub.HandleWebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", HealthHandler(d.Health...))

		r.Route("/subscriptions", func(r chi.Router) {
			r.Post("/", subHandler.Create)
			r.Get("/", subHandler.List)
			r.Get("/{id}", subHandler.Get)
			r.Patch("/{id}", subHandler.Update)
			r.Delete("/{id}", subHandler.Delete)
		})

		r.Get("/profile", profileHandler.Get)
		r.Put("/profile", profileHandler.Update)

		r.Route("/reminders", func(r chi.Router) {
			r.Get("/due", reminderHandler.Due)
			r.Post("/check", reminderHandler.Check)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", notificationHandler.List)
			r.Post("/test", notificationHandler.Test)
		})

		r.Get("/analytics/totals", analyticsHandler.Totals)
		r.Get("/backup", backupHandler.Download)

		r.Get("/metrics", dashHandler.Metrics)
		r.Get("/channels", dashHandler.Channels)
	})

	return r
}

// corsMiddleware adds CORS headers for the web app.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
