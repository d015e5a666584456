package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Priya8975/subscription-reminders/internal/domain"
)

// BackupVersion is the format version written into exports.
const BackupVersion = "1.0"

type BackupHandler struct {
	store Store
}

func NewBackupHandler(s Store) *BackupHandler {
	return &BackupHandler{store: s}
}

type backupResponse struct {
	Profile       domain.ReminderProfile `json:"profile"`
	Subscriptions []domain.Subscription  `json:"subscriptions"`
	Timestamp     time.Time              `json:"timestamp"`
	Version       string                 `json:"version"`
}

// Download exports the profile and every subscription as a JSON attachment.
func (h *BackupHandler) Download(w http.ResponseWriter, r *http.Request) {
	profile, err := h.store.GetProfile(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	subs, err := h.store.ListSubscriptions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}

	now := time.Now().UTC()
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="subtrack_backup_%s.json"`, now.Format("2006-01-02")))
	respondJSON(w, http.StatusOK, backupResponse{
		Profile:       profile,
		Subscriptions: subs,
		Timestamp:     now,
		Version:       BackupVersion,
	})
}
