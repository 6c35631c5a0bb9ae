package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayo6706/profitwave/internal/api/middleware"
	"github.com/ayo6706/profitwave/internal/api/problem"
	"github.com/ayo6706/profitwave/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// envelope is the success body shape of every JSON endpoint.
type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// RespondJSON writes data inside the success envelope.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

// RespondError writes an error response.
func RespondError(w http.ResponseWriter, r *http.Request, status int, problemType, message string) {
	if problemType != "" && problemType != "about:blank" && !strings.HasPrefix(problemType, "http") {
		problemType = problem.Type(problemType)
	}
	problem.Write(w, r, status, problemType, http.StatusText(status), message)
}

// respondServiceError maps domain sentinels onto problem responses. Anything
// unrecognised is logged and reported as a 500 with op in the log line.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, op string) {
	var verr *domain.ValidationError
	d := problem.Details{Detail: err.Error()}
	switch {
	case errors.As(err, &verr):
		d.Status, d.Code, d.Type = http.StatusBadRequest, problem.CodeValidation, problem.Type("request/validation")
		d.Field, d.Detail = verr.Field, verr.Message
	case errors.Is(err, domain.ErrValidation):
		d.Status, d.Code, d.Type = http.StatusBadRequest, problem.CodeValidation, problem.Type("request/validation")
	case errors.Is(err, domain.ErrNotFound):
		d.Status, d.Code, d.Type = http.StatusNotFound, problem.CodeNotFound, problem.Type("resource/not-found")
	case errors.Is(err, domain.ErrUnauthorized):
		d.Status, d.Code, d.Type = http.StatusUnauthorized, problem.CodeUnauthorized, problem.Type("auth/unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		d.Status, d.Code, d.Type = http.StatusForbidden, problem.CodeForbidden, problem.Type("auth/insufficient-permissions")
	case errors.Is(err, domain.ErrInsufficientBalance):
		d.Status, d.Code, d.Type = http.StatusUnprocessableEntity, problem.CodeInsufficientBalance, problem.Type("ledger/insufficient-balance")
		d.Detail = "insufficient balance"
	case errors.Is(err, domain.ErrBalanceLimit):
		d.Status, d.Code, d.Type = http.StatusUnprocessableEntity, problem.CodeBalanceLimit, problem.Type("ledger/balance-limit")
		d.Detail = "balance limit exceeded"
	case errors.Is(err, domain.ErrAlreadyProcessed):
		d.Status, d.Code, d.Type = http.StatusConflict, problem.CodeAlreadyProcessed, problem.Type("ledger/already-processed")
	case errors.Is(err, domain.ErrConflict):
		d.Status, d.Code, d.Type = http.StatusConflict, problem.CodeConflict, problem.Type("resource/conflict")
	case errors.Is(err, domain.ErrStorageUnavailable), errors.Is(err, context.DeadlineExceeded):
		d.Status, d.Code, d.Type = http.StatusServiceUnavailable, problem.CodeStorageUnavailable, problem.Type("storage/unavailable")
		d.Detail = "storage is temporarily unavailable"
		w.Header().Set("Retry-After", "5")
		zap.L().Warn(op+" failed", zap.Error(err), zap.String("trace_id", middleware.TraceIDFromContext(r.Context())))
	default:
		zap.L().Error(op+" failed", zap.Error(err), zap.String("trace_id", middleware.TraceIDFromContext(r.Context())))
		d.Status, d.Code, d.Type = http.StatusInternalServerError, problem.CodeInternal, problem.Type("internal-server-error")
		d.Detail = "unexpected server error"
	}
	problem.WriteDetails(w, r, d)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return false
	}
	return true
}

// decodeOptionalJSON accepts an empty body.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.ContentLength == 0 {
		return true
	}
	return decodeJSON(w, r, dst)
}

func requestUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := middleware.UserUUIDFromContext(r.Context())
	if !ok {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return uuid.Nil, false
	}
	return id, true
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		problem.WriteDetails(w, r, problem.Details{
			Status: http.StatusBadRequest,
			Type:   problem.Type("request/invalid-id"),
			Detail: "invalid " + name,
			Field:  name,
		})
		return uuid.Nil, false
	}
	return id, true
}

// parsePage reads limit and offset query parameters; zero means default.
func parsePage(w http.ResponseWriter, r *http.Request) (int32, int32, bool) {
	var limit, offset int32
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			RespondError(w, r, http.StatusBadRequest, "request/invalid-limit", "limit must be a positive integer")
			return 0, 0, false
		}
		limit = int32(min(parsed, 1000))
	}
	if v := strings.TrimSpace(r.URL.Query().Get("offset")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			RespondError(w, r, http.StatusBadRequest, "request/invalid-offset", "offset must be a non-negative integer")
			return 0, 0, false
		}
		if parsed > math.MaxInt32 {
			RespondError(w, r, http.StatusBadRequest, "request/invalid-offset", fmt.Sprintf("offset must be at most %d", math.MaxInt32))
			return 0, 0, false
		}
		offset = int32(parsed)
	}
	return limit, offset, true
}

// queryPositiveInt reads an optional positive integer query parameter; absent
// means zero.
func queryPositiveInt(r *http.Request, name string) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, domain.Invalid(name, "must be a positive integer")
	}
	return n, nil
}

// listResponse is the data shape of paged collections.
type listResponse struct {
	Items  any   `json:"items"`
	Count  int   `json:"count"`
	Limit  int32 `json:"limit,omitempty"`
	Offset int32 `json:"offset"`
}

func respondList[T any](w http.ResponseWriter, items []T, limit, offset int32) {
	if items == nil {
		items = []T{}
	}
	RespondJSON(w, http.StatusOK, listResponse{Items: items, Count: len(items), Limit: limit, Offset: offset})
}

type decisionBody struct {
	Note string `json:"note"`
}

func createdStatus(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}
