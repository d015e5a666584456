package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/Priya8975/subscription-reminders/internal/domain"
	"github.com/Priya8975/subscription-reminders/internal/engine"
)

type ProfileHandler struct {
	store  Store
	queue  CheckQueue
	logger *slog.Logger
}

func NewProfileHandler(s Store, q CheckQueue, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{store: s, queue: q, logger: logger}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.store.GetProfile(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// Update merges the given fields into the saved profile. Turning
// notifications on or changing the reminder days queues a check, the same
// way the app re-evaluates whenever those settings change.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := h.store.GetProfile(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}
	before := profile

	if req.Name != nil {
		profile.Name = strings.TrimSpace(*req.Name)
	}
	if req.NotificationsEnabled != nil {
		profile.NotificationsEnabled = *req.NotificationsEnabled
	}
	if req.ReminderDays != nil {
		days, err := domain.NewReminderDays(req.ReminderDays...)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		profile.ReminderDays = days
	}
	if req.Permission != nil {
		switch *req.Permission {
		case domain.PermissionGranted, domain.PermissionDenied, domain.PermissionDefault:
			profile.Permission = *req.Permission
		default:
			respondError(w, http.StatusBadRequest, "permission must be granted, denied or default")
			return
		}
	}

	saved, err := h.store.SaveProfile(r.Context(), profile)
	if err != nil {
		h.logger.Error("failed to save profile", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}

	enabled := saved.NotificationsEnabled && !before.NotificationsEnabled
	daysChanged := !slices.Equal(saved.ReminderDays, before.ReminderDays)
	if saved.NotificationsEnabled && (enabled || daysChanged) {
		if err := h.queue.Enqueue(r.Context(), engine.NewCheckRequest("profile_updated", false)); err != nil {
			h.logger.Error("failed to queue check after profile update", "error", err)
		}
	}

	respondJSON(w, http.StatusOK, saved)
}
