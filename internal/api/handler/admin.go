package handler

import (
	"net/http"

	"github.com/ayo6706/profitwave/internal/service"
)

// AdminHandler serves the back-office notification feed and totals.
type AdminHandler struct {
	notifications *service.NotificationService
	stats         *service.StatsService
}

func NewAdminHandler(notifications *service.NotificationService, stats *service.StatsService) *AdminHandler {
	return &AdminHandler{notifications: notifications, stats: stats}
}

// Notifications handles GET /v1/admin/notifications?unread=true.
func (h *AdminHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := parsePage(w, r)
	if !ok {
		return
	}
	unread := r.URL.Query().Get("unread") == "true"
	items, err := h.notifications.List(r.Context(), unread, limit, offset)
	if err != nil {
		respondServiceError(w, r, err, "list notifications")
		return
	}
	respondList(w, items, limit, offset)
}

// MarkNotificationRead handles POST /v1/admin/notifications/{id}/read.
func (h *AdminHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(r.Context(), id); err != nil {
		respondServiceError(w, r, err, "mark notification read")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"id": id, "read": true})
}

// Stats handles GET /v1/admin/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Get(r.Context())
	if err != nil {
		respondServiceError(w, r, err, "get stats")
		return
	}
	RespondJSON(w, http.StatusOK, stats)
}
