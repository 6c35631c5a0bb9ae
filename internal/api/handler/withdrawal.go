package handler

import (
	"context"
	"net/http"

	"github.com/ayo6706/profitwave/internal/api/middleware"
	"github.com/ayo6706/profitwave/internal/models"
	"github.com/ayo6706/profitwave/internal/service"
	"github.com/google/uuid"
)

// WithdrawalHandler handles HTTP requests for withdrawals.
type WithdrawalHandler struct {
	svc *service.WithdrawalService
}

func NewWithdrawalHandler(svc *service.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{svc: svc}
}

type requestWithdrawalRequest struct {
	Amount        int64  `json:"amount"`
	Method        string `json:"method"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
}

// Request handles POST /v1/withdrawals.
// The amount is reserved immediately; the Idempotency-Key header doubles as
// the per-user request key so a retried request never debits twice.
func (h *WithdrawalHandler) Request(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}
	var req requestWithdrawalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	withdrawal, created, err := h.svc.Request(r.Context(), service.RequestWithdrawalRequest{
		UserID:        userID,
		Amount:        req.Amount,
		Method:        req.Method,
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		RequestKey:    r.Header.Get("Idempotency-Key"),
		ClientIP:      middleware.ClientIP(r),
	})
	if err != nil {
		respondServiceError(w, r, err, "request withdrawal")
		return
	}
	RespondJSON(w, createdStatus(created), withdrawal)
}

// ListMine handles GET /v1/withdrawals.
func (h *WithdrawalHandler) ListMine(w http.ResponseWriter, r *http.Request) {
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
		respondServiceError(w, r, err, "list withdrawals")
		return
	}
	respondList(w, items, limit, offset)
}

// List handles GET /v1/admin/withdrawals?status=&user_id= (admin only).
func (h *WithdrawalHandler) List(w http.ResponseWriter, r *http.Request) {
	arg, ok := recordFilter(w, r)
	if !ok {
		return
	}
	items, err := h.svc.List(r.Context(), arg)
	if err != nil {
		respondServiceError(w, r, err, "list withdrawals")
		return
	}
	respondList(w, items, arg.Limit, arg.Offset)
}

type withdrawalDetail struct {
	Withdrawal models.Withdrawal    `json:"withdrawal"`
	History    []service.AuditEntry `json:"history"`
}

// Get handles GET /v1/admin/withdrawals/{id} (admin only).
func (h *WithdrawalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	withdrawal, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "get withdrawal")
		return
	}
	history, err := h.svc.History(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "get withdrawal history")
		return
	}
	RespondJSON(w, http.StatusOK, withdrawalDetail{Withdrawal: withdrawal, History: history})
}

// Approve handles POST /v1/admin/withdrawals/{id}/approve (admin only).
func (h *WithdrawalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.svc.Approve)
}

// Reject handles POST /v1/admin/withdrawals/{id}/reject (admin only).
func (h *WithdrawalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.svc.Reject)
}

func (h *WithdrawalHandler) decide(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, adminID, id uuid.UUID, note string) (models.Withdrawal, error)) {
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
	withdrawal, err := fn(r.Context(), adminID, id, body.Note)
	if err != nil {
		respondServiceError(w, r, err, "decide withdrawal")
		return
	}
	RespondJSON(w, http.StatusOK, withdrawal)
}
