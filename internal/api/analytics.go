package api

import (
	"net/http"

	"github.com/Priya8975/subscription-reminders/internal/analytics"
)

type AnalyticsHandler struct {
	store Store
}

func NewAnalyticsHandler(s Store) *AnalyticsHandler {
	return &AnalyticsHandler{store: s}
}

// Totals returns monthly and yearly spend per currency.
func (h *AnalyticsHandler) Totals(w http.ResponseWriter, r *http.Request) {
	subs, err := h.store.ListSubscriptions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}

	respondJSON(w, http.StatusOK, analytics.Compute(subs))
}
