package handler

import (
	"net/http"

	"github.com/ayo6706/profitwave/internal/api/middleware"
	"github.com/ayo6706/profitwave/internal/service"
)

type SupportHandler struct {
	svc *service.SupportService
}

func NewSupportHandler(svc *service.SupportService) *SupportHandler {
	return &SupportHandler{svc: svc}
}

type messageRequest struct {
	Body string `json:"body"`
}

// Send handles POST /v1/support/messages.
func (h *SupportHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}
	var req messageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	msg, err := h.svc.Send(r.Context(), userID, req.Body, middleware.ClientIP(r))
	if err != nil {
		respondServiceError(w, r, err, "send support message")
		return
	}
	RespondJSON(w, http.StatusCreated, msg)
}

// Thread handles GET /v1/support/messages.
func (h *SupportHandler) Thread(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}
	limit, offset, ok := parsePage(w, r)
	if !ok {
		return
	}
	msgs, err := h.svc.Thread(r.Context(), userID, limit, offset)
	if err != nil {
		respondServiceError(w, r, err, "read support thread")
		return
	}
	respondList(w, msgs, limit, offset)
}

// Threads handles GET /v1/admin/support/threads (admin only).
func (h *SupportHandler) Threads(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := parsePage(w, r)
	if !ok {
		return
	}
	threads, err := h.svc.Threads(r.Context(), limit, offset)
	if err != nil {
		respondServiceError(w, r, err, "list support threads")
		return
	}
	respondList(w, threads, limit, offset)
}

// AdminThread handles GET /v1/admin/support/threads/{userID} (admin only).
func (h *SupportHandler) AdminThread(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}
	limit, offset, ok := parsePage(w, r)
	if !ok {
		return
	}
	msgs, err := h.svc.AdminThread(r.Context(), userID, limit, offset)
	if err != nil {
		respondServiceError(w, r, err, "read support thread")
		return
	}
	respondList(w, msgs, limit, offset)
}

// Reply handles POST /v1/admin/support/threads/{userID} (admin only).
func (h *SupportHandler) Reply(w http.ResponseWriter, r *http.Request) {
	adminID, ok := requestUser(w, r)
	if !ok {
		return
	}
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}
	var req messageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	msg, err := h.svc.Reply(r.Context(), adminID, userID, req.Body)
	if err != nil {
		respondServiceError(w, r, err, "reply to support thread")
		return
	}
	RespondJSON(w, http.StatusCreated, msg)
}
