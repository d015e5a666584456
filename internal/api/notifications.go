package api

import (
	"net/http"
	"strconv"
)

type NotificationHandler struct {
	store   Store
	checker Checker
}

func NewNotificationHandler(s Store, c Checker) *NotificationHandler {
	return &NotificationHandler{store: s, checker: c}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	subscriptionID := r.URL.Query().Get("subscription_id")
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.store.ListNotifications(r.Context(), subscriptionID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}

	respondJSON(w, http.StatusOK, records)
}

// Test sends a test notification through every channel the profile may use.
func (h *NotificationHandler) Test(w http.ResponseWriter, r *http.Request) {
	report, err := h.checker.SendTest(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to send test notification")
		return
	}

	respondJSON(w, http.StatusOK, report)
}
