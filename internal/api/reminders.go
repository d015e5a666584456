package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Priya8975/subscription-reminders/internal/domain"
	"github.com/Priya8975/subscription-reminders/internal/engine"
)

type ReminderHandler struct {
	checker Checker
	queue   CheckQueue
}

func NewReminderHandler(c Checker, q CheckQueue) *ReminderHandler {
	return &ReminderHandler{checker: c, queue: q}
}

type dueResponse struct {
	Date   string            `json:"date"`
	Force  bool              `json:"force"`
	Events []domain.DueEvent `json:"events"`
}

// Due previews which reminders fire on a date (default today) without
// sending anything.
func (h *ReminderHandler) Due(w http.ResponseWriter, r *http.Request) {
	force, err := boolParam(r, "force")
	if err != nil {
		respondError(w, http.StatusBadRequest, "force must be a boolean")
		return
	}

	date := h.checker.Today()
	if v := r.URL.Query().Get("date"); v != "" {
		date, err = engine.ParseCalendarDate(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
	}

	events, err := h.checker.Preview(r.Context(), date, force)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to evaluate reminders")
		return
	}
	if events == nil {
		events = []domain.DueEvent{}
	}

	respondJSON(w, http.StatusOK, dueResponse{
		Date:   engine.FormatCalendarDate(date),
		Force:  force,
		Events: events,
	})
}

type checkResponse struct {
	RequestID   string    `json:"request_id"`
	Force       bool      `json:"force"`
	RequestedAt time.Time `json:"requested_at"`
}

// Check queues a reminder check; the worker runs it.
func (h *ReminderHandler) Check(w http.ResponseWriter, r *http.Request) {
	force, err := boolParam(r, "force")
	if err != nil {
		respondError(w, http.StatusBadRequest, "force must be a boolean")
		return
	}

	req := engine.NewCheckRequest("api", force)
	if err := h.queue.Enqueue(r.Context(), req); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to queue check")
		return
	}

	respondJSON(w, http.StatusAccepted, checkResponse{
		RequestID:   req.ID,
		Force:       req.Force,
		RequestedAt: req.RequestedAt,
	})
}

func boolParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}
