package api

import (
	"net/http"

	"github.com/Priya8975/subscription-reminders/internal/channel"
	"github.com/Priya8975/subscription-reminders/internal/store"
)

type DashboardHandler struct {
	store    Store
	queue    CheckQueue
	channels ChannelStatus
	hub      WebSocketHub
}

func NewDashboardHandler(s Store, q CheckQueue, ch ChannelStatus, hub WebSocketHub) *DashboardHandler {
	return &DashboardHandler{store: s, queue: q, channels: ch, hub: hub}
}

// Metrics returns aggregated reminder metrics for the dashboard.
func (h *DashboardHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.store.GetNotificationMetrics(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get metrics")
		return
	}

	// Get queue depth from Redis
	queueDepth, err := h.queue.Depth(r.Context())
	if err != nil {
		queueDepth = 0
	}

	type metricsResponse struct {
		store.NotificationMetrics
		QueueDepth       int64 `json:"queue_depth"`
		WebSocketClients int   `json:"websocket_clients"`
		HeldNotices      int   `json:"held_notices"`
	}

	respondJSON(w, http.StatusOK, metricsResponse{
		NotificationMetrics: *metrics,
		QueueDepth:          queueDepth,
		WebSocketClients:    h.hub.ClientCount(),
		HeldNotices:         h.hub.PendingCount(),
	})
}

// Channels lists the configured channels with their circuit breaker state.
func (h *DashboardHandler) Channels(w http.ResponseWriter, r *http.Request) {
	statuses := []channel.ChannelStatus{}
	if h.channels != nil {
		statuses = h.channels.Status()
	}
	respondJSON(w, http.StatusOK, statuses)
}
