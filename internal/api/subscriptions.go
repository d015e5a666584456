package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Priya8975/subscription-reminders/internal/domain"
	"github.com/Priya8975/subscription-reminders/internal/engine"
	"github.com/Priya8975/subscription-reminders/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type SubscriptionHandler struct {
	store   Store
	queue   CheckQueue
	dedup   DedupClearer
	checker Checker
	logger  *slog.Logger
}

func NewSubscriptionHandler(s Store, q CheckQueue, d DedupClearer, c Checker, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{store: s, queue: q, dedup: d, checker: c, logger: logger}
}

type subscriptionResponse struct {
	*domain.Subscription
	// CheckQueued is set when the save queued a forced check because the
	// subscription bills today.
	CheckQueued bool `json:"check_queued,omitempty"`
}

func (h *SubscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	var err error
	if req.Cost, err = normalizeCost(req.Cost); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Currency, err = normalizeCurrency(req.Currency); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.BillingCycle == "" {
		req.BillingCycle = domain.CycleMonthly
	}
	if !domain.IsBillingCycle(req.BillingCycle) {
		respondError(w, http.StatusBadRequest, "unknown billing_cycle")
		return
	}
	if req.NextBillingDate, err = normalizeDate(req.NextBillingDate); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.store.CreateSubscription(r.Context(), req)
	if errors.Is(err, store.ErrSubscriptionExists) {
		respondError(w, http.StatusConflict, "subscription already exists")
		return
	}
	if err != nil {
		h.logger.Error("failed to create subscription", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create subscription")
		return
	}

	respondJSON(w, http.StatusCreated, subscriptionResponse{
		Subscription: sub,
		CheckQueued:  h.queueIfDueToday(r.Context(), sub),
	})
}

func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.store.ListSubscriptions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}

	respondJSON(w, http.StatusOK, subs)
}

func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sub, err := h.store.GetSubscription(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get subscription")
		return
	}
	if sub == nil {
		respondError(w, http.StatusNotFound, "subscription not found")
		return
	}

	respondJSON(w, http.StatusOK, sub)
}

func (h *SubscriptionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req domain.UpdateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			respondError(w, http.StatusBadRequest, "name cannot be empty")
			return
		}
		req.Name = &name
	}
	if req.Cost != nil {
		cost, err := normalizeCost(*req.Cost)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Cost = &cost
	}
	if req.Currency != nil {
		cur, err := normalizeCurrency(*req.Currency)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Currency = &cur
	}
	if req.BillingCycle != nil && !domain.IsBillingCycle(*req.BillingCycle) {
		respondError(w, http.StatusBadRequest, "unknown billing_cycle")
		return
	}
	if req.NextBillingDate != nil {
		date, err := normalizeDate(*req.NextBillingDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.NextBillingDate = &date
	}

	before, err := h.store.GetSubscription(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get subscription")
		return
	}
	if before == nil {
		respondError(w, http.StatusNotFound, "subscription not found")
		return
	}

	sub, err := h.store.UpdateSubscription(r.Context(), id, req)
	if err != nil {
		h.logger.Error("failed to update subscription", "subscription_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to update subscription")
		return
	}
	if sub == nil {
		respondError(w, http.StatusNotFound, "subscription not found")
		return
	}

	// A new billing date starts a new reminder cycle.
	if sub.NextBillingDate != before.NextBillingDate {
		h.clearDedup(r.Context(), id)
	}

	respondJSON(w, http.StatusOK, subscriptionResponse{
		Subscription: sub,
		CheckQueued:  h.queueIfDueToday(r.Context(), sub),
	})
}

func (h *SubscriptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := h.store.DeleteSubscription(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, "subscription not found")
		return
	}

	h.clearDedup(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// queueIfDueToday queues a forced check when sub bills today so the user gets
// immediate feedback for a subscription saved on its renewal day.
func (h *SubscriptionHandler) queueIfDueToday(ctx context.Context, sub *domain.Subscription) bool {
	if sub.NextBillingDate == "" {
		return false
	}
	date, err := engine.ParseCalendarDate(sub.NextBillingDate)
	if err != nil || engine.DaysUntil(date, h.checker.Today()) != 0 {
		return false
	}

	if err := h.queue.Enqueue(ctx, engine.NewCheckRequest("subscription_saved", true)); err != nil {
		h.logger.Error("failed to queue check after save", "subscription_id", sub.ID, "error", err)
		return false
	}
	return true
}

func (h *SubscriptionHandler) clearDedup(ctx context.Context, id string) {
	n, err := h.dedup.ClearSubscription(ctx, id)
	if err != nil {
		h.logger.Error("failed to clear dedup flags", "subscription_id", id, "error", err)
		return
	}
	h.logger.Debug("dedup flags cleared", "subscription_id", id, "count", n)
}

func normalizeCost(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "0.00", nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", fmt.Errorf("cost must be a number")
	}
	if d.IsNegative() {
		return "", fmt.Errorf("cost cannot be negative")
	}
	return d.StringFixed(2), nil
}

func normalizeCurrency(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "USD", nil
	}
	if len(s) != 3 {
		return "", fmt.Errorf("currency must be a 3-letter code")
	}
	for _, c := range s {
		if c < 'A' || c > 'Z' {
			return "", fmt.Errorf("currency must be a 3-letter code")
		}
	}
	return s, nil
}

func normalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	t, err := engine.ParseCalendarDate(s)
	if err != nil {
		return "", fmt.Errorf("next_billing_date must be YYYY-MM-DD")
	}
	return engine.FormatCalendarDate(t), nil
}
