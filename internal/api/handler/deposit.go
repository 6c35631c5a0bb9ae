package handler

import (
	"context"
	"net/http"

	"github.com/ayo6706/profitwave/internal/api/middleware"
	"github.com/ayo6706/profitwave/internal/models"
	"github.com/ayo6706/profitwave/internal/repository"
	"github.com/ayo6706/profitwave/internal/service"
	"github.com/google/uuid"
)

type DepositHandler struct {
	svc *service.DepositService
}

func NewDepositHandler(svc *service.DepositService) *DepositHandler {
	return &DepositHandler{svc: svc}
}

type confirmDepositRequest struct {
	Amount     int64  `json:"amount"`
	Method     string `json:"method"`
	PayerPhone string `json:"payer_phone"`
	Reference  string `json:"reference"`
}

// Confirm handles POST /v1/deposits. The user reports a completed mobile money
// or bank payment; the record waits for back-office approval.
func (h *DepositHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}
	var req confirmDepositRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	deposit, created, err := h.svc.Confirm(r.Context(), service.ConfirmDepositRequest{
		UserID:     userID,
		Amount:     req.Amount,
		Method:     req.Method,
		PayerPhone: req.PayerPhone,
		Reference:  req.Reference,
		ClientIP:   middleware.ClientIP(r),
	})
	if err != nil {
		respondServiceError(w, r, err, "confirm deposit")
		return
	}
	RespondJSON(w, createdStatus(created), deposit)
}

// ListMine handles GET /v1/deposits.
func (h *DepositHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}
	limit, offset, ok := parsePage(w, r)
	if !ok {
		return
	}
	items, err := h.svc.ListMine(r.Context(), userID, r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		respondServiceError(w, r, err, "list deposits")
		return
	}
	respondList(w, items, limit, offset)
}

// List handles GET /v1/admin/deposits?status=&user_id= (admin only).
func (h *DepositHandler) List(w http.ResponseWriter, r *http.Request) {
	arg, ok := recordFilter(w, r)
	if !ok {
		return
	}
	items, err := h.svc.List(r.Context(), arg)
	if err != nil {
		respondServiceError(w, r, err, "list deposits")
		return
	}
	respondList(w, items, arg.Limit, arg.Offset)
}

type depositDetail struct {
	Deposit models.Deposit       `json:"deposit"`
	History []service.AuditEntry `json:"history"`
}

// Get handles GET /v1/admin/deposits/{id} (admin only).
func (h *DepositHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	deposit, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "get deposit")
		return
	}
	history, err := h.svc.History(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "get deposit history")
		return
	}
	RespondJSON(w, http.StatusOK, depositDetail{Deposit: deposit, History: history})
}

// Approve handles POST /v1/admin/deposits/{id}/approve (admin only).
func (h *DepositHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.svc.Approve)
}

// Reject handles POST /v1/admin/deposits/{id}/reject (admin only).
func (h *DepositHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.svc.Reject)
}

type depositDecision func(ctx context.Context, adminID, id uuid.UUID, note string) (models.Deposit, error)

func (h *DepositHandler) decide(w http.ResponseWriter, r *http.Request, fn depositDecision) {
	adminID, ok := requestUser(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var body decisionBody
	if !decodeOptionalJSON(w, r, &body) {
		return
	}
	deposit, err := fn(r.Context(), adminID, id, body.Note)
	if err != nil {
		respondServiceError(w, r, err, "decide deposit")
		return
	}
	RespondJSON(w, http.StatusOK, deposit)
}

func recordFilter(w http.ResponseWriter, r *http.Request) (repository.ListRecordsParams, bool) {
	limit, offset, ok := parsePage(w, r)
	if !ok {
		return repository.ListRecordsParams{}, false
	}
	arg := repository.ListRecordsParams{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	}
	if v := r.URL.Query().Get("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			RespondError(w, r, http.StatusBadRequest, "request/invalid-user-id", "user_id must be a UUID")
			return repository.ListRecordsParams{}, false
		}
		arg.UserID = &id
	}
	return arg, true
}
