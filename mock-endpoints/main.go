// Command mock-endpoints is a local stand-in for a web push relay. Point
// WEBHOOK_URL at one of its routes to exercise the webhook channel.
package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Priya8975/subscription-reminders/internal/channel"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type receiver struct {
	secret string
	logger *slog.Logger

	requests  atomic.Int64
	badSigs   atomic.Int64
	mu        sync.Mutex
	lastTags  []string
	slowDelay time.Duration
}

func main() {
	port := "9090"
	if p := os.Getenv("PORT"); p != "" {
		port = p
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	rc := &receiver{secret: os.Getenv("WEBHOOK_SECRET"), logger: logger, slowDelay: 3 * time.Second}

	logger.Info("mock relay starting", "port", port, "verify_signatures", rc.secret != "")
	logger.Info("routes",
		"success", "POST /reminders/success -> 200",
		"slow", "POST /reminders/slow -> 200 after 3s",
		"fail", "POST /reminders/fail -> 500",
		"forbidden", "POST /reminders/forbidden -> 403",
		"stats", "GET /stats",
	)

	if err := http.ListenAndServe(":"+port, rc.routes()); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func (rc *receiver) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/reminders/success", rc.handle(http.StatusOK, 0))
	r.Post("/reminders/slow", rc.handle(http.StatusOK, rc.slowDelay))
	r.Post("/reminders/fail", rc.handle(http.StatusInternalServerError, 0))
	r.Post("/reminders/forbidden", rc.handle(http.StatusForbidden, 0))
	r.Get("/stats", rc.stats)
	return r
}

// handle verifies the signature, records the reminder and answers with
// status. A bad signature always gets 401.
func (rc *receiver) handle(status int, delay time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count := rc.requests.Add(1)

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "reading body", http.StatusBadRequest)
			return
		}

		sig := r.Header.Get("X-Reminder-Signature")
		if rc.secret != "" && !channel.VerifySignature(body, rc.secret, sig) {
			rc.badSigs.Add(1)
			rc.logger.Warn("signature mismatch", "n", count, "signature", truncate(sig, 16))
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
			return
		}

		var payload channel.WebhookPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}

		if delay > 0 {
			time.Sleep(delay)
		}

		rc.mu.Lock()
		rc.lastTags = append(rc.lastTags, payload.Notification.Tag)
		if len(rc.lastTags) > 20 {
			rc.lastTags = rc.lastTags[len(rc.lastTags)-20:]
		}
		rc.mu.Unlock()

		rc.logger.Info("reminder received",
			"n", count,
			"path", r.URL.Path,
			"status", status,
			"tag", payload.Notification.Tag,
			"offset", r.Header.Get("X-Reminder-Offset"),
			"body", payload.Notification.Body,
		)

		if status >= 400 {
			writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
			return
		}
		writeJSON(w, status, map[string]string{"status": "received"})
	}
}

type statsResponse struct {
	TotalRequests   int64    `json:"total_requests"`
	BadSignatures   int64    `json:"bad_signatures"`
	RecentReminders []string `json:"recent_reminders"`
}

func (rc *receiver) stats(w http.ResponseWriter, r *http.Request) {
	rc.mu.Lock()
	tags := append([]string{}, rc.lastTags...)
	rc.mu.Unlock()

	writeJSON(w, http.StatusOK, statsResponse{
		TotalRequests:   rc.requests.Load(),
		BadSignatures:   rc.badSigs.Load(),
		RecentReminders: tags,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
