package handler

import (
	"net/http"

	"github.com/ayo6706/profitwave/internal/service"
)

type AccountHandler struct {
	svc *service.AccountService
}

func NewAccountHandler(svc *service.AccountService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

// GetBalance handles GET /v1/me/balance.
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}
	balance, err := h.svc.GetBalance(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err, "get balance")
		return
	}
	RespondJSON(w, http.StatusOK, balance)
}

// GetStatement handles GET /v1/me/ledger?page=&page_size=.
func (h *AccountHandler) GetStatement(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}

	page, err := queryPositiveInt(r, "page")
	if err != nil {
		respondServiceError(w, r, err, "get statement")
		return
	}
	pageSize, err := queryPositiveInt(r, "page_size")
	if err != nil {
		respondServiceError(w, r, err, "get statement")
		return
	}
	limit, offset, err := service.StatementWindow(page, pageSize)
	if err != nil {
		respondServiceError(w, r, err, "get statement")
		return
	}

	entries, err := h.svc.GetStatement(r.Context(), userID, page, pageSize)
	if err != nil {
		respondServiceError(w, r, err, "get statement")
		return
	}
	respondList(w, entries, limit, offset)
}
