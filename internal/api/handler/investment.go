package handler

import (
	"net/http"

	"github.com/ayo6706/profitwave/internal/api/middleware"
	"github.com/ayo6706/profitwave/internal/service"
)

type InvestmentHandler struct {
	svc *service.InvestmentService
}

func NewInvestmentHandler(svc *service.InvestmentService) *InvestmentHandler {
	return &InvestmentHandler{svc: svc}
}

// Plans handles GET /v1/plans.
func (h *InvestmentHandler) Plans(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.svc.Plans())
}

type purchaseRequest struct {
	PlanID string `json:"plan_id"`
	Amount int64  `json:"amount"`
}

// Purchase handles POST /v1/investments.
func (h *InvestmentHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}
	var req purchaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inv, err := h.svc.Purchase(r.Context(), service.PurchaseRequest{
		UserID:   userID,
		PlanID:   req.PlanID,
		Amount:   req.Amount,
		ClientIP: middleware.ClientIP(r),
	})
	if err != nil {
		respondServiceError(w, r, err, "purchase investment")
		return
	}
	RespondJSON(w, http.StatusCreated, inv)
}

// ListMine handles GET /v1/investments.
func (h *InvestmentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
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
		respondServiceError(w, r, err, "list investments")
		return
	}
	respondList(w, items, limit, offset)
}
