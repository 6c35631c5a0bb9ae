package handler

import (
	"net/http"

	"github.com/ayo6706/profitwave/internal/api/middleware"
	"github.com/ayo6706/profitwave/internal/models"
	"github.com/ayo6706/profitwave/internal/service"
)

type UserHandler struct {
	users    *service.UserService
	accounts *service.AccountService
	activity *service.ActivityService
}

func NewUserHandler(users *service.UserService, accounts *service.AccountService, activity *service.ActivityService) *UserHandler {
	return &UserHandler{users: users, accounts: accounts, activity: activity}
}

type meResponse struct {
	User    models.User     `json:"user"`
	Balance service.Balance `json:"balance"`
}

// Signup handles POST /v1/me. It is idempotent: 201 on first call, 200 after.
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, created, err := h.users.EnsureUser(ctx, service.EnsureUserRequest{
		Subject:  middleware.SubjectFromContext(ctx),
		Email:    middleware.EmailFromContext(ctx),
		Role:     middleware.UserRoleFromContext(ctx),
		ClientIP: middleware.ClientIP(r),
	})
	if err != nil {
		respondServiceError(w, r, err, "signup")
		return
	}
	RespondJSON(w, createdStatus(created), user)
}

// Me handles GET /v1/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}
	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err, "get user")
		return
	}
	balance, err := h.accounts.GetBalance(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err, "get balance")
		return
	}
	RespondJSON(w, http.StatusOK, meResponse{User: user, Balance: balance})
}

type profileRequest struct {
	FullName     *string `json:"full_name"`
	Phone        *string `json:"phone"`
	Country      *string `json:"country"`
	City         *string `json:"city"`
	DateOfBirth  *string `json:"date_of_birth"`
	ReferralCode *string `json:"referral_code"`
}

// UpdateProfile handles PUT /v1/me/profile. Omitted fields are left unchanged.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.users.CompleteProfile(r.Context(), service.CompleteProfileRequest{
		UserID:       userID,
		FullName:     req.FullName,
		Phone:        req.Phone,
		Country:      req.Country,
		City:         req.City,
		DateOfBirth:  req.DateOfBirth,
		ReferralCode: req.ReferralCode,
		ClientIP:     middleware.ClientIP(r),
	})
	if err != nil {
		respondServiceError(w, r, err, "update profile")
		return
	}
	RespondJSON(w, http.StatusOK, user)
}

// MyActivity handles GET /v1/me/activity.
func (h *UserHandler) MyActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}
	limit, offset, ok := parsePage(w, r)
	if !ok {
		return
	}
	items, err := h.activity.List(r.Context(), userID, limit, offset)
	if err != nil {
		respondServiceError(w, r, err, "list activity")
		return
	}
	respondList(w, items, limit, offset)
}

// ListUsers handles GET /v1/admin/users (admin only).
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := parsePage(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	users, err := h.users.List(r.Context(), q.Get("q"), q.Get("role"), limit, offset)
	if err != nil {
		respondServiceError(w, r, err, "list users")
		return
	}
	respondList(w, users, limit, offset)
}

// GetUser handles GET /v1/admin/users/{id} (admin only).
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	detail, err := h.users.Detail(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "get user detail")
		return
	}
	RespondJSON(w, http.StatusOK, detail)
}

// UserActivity handles GET /v1/admin/users/{id}/activity (admin only).
func (h *UserHandler) UserActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	limit, offset, ok := parsePage(w, r)
	if !ok {
		return
	}
	items, err := h.activity.ListForUser(r.Context(), id, limit, offset)
	if err != nil {
		respondServiceError(w, r, err, "list user activity")
		return
	}
	respondList(w, items, limit, offset)
}
