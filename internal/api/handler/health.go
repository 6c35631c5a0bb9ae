package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/ayo6706/profitwave/internal/api/problem"
	"github.com/redis/go-redis/v9"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler exposes Kubernetes-style liveness and readiness endpoints.
type HealthHandler struct {
	store Pinger
	redis redis.Cmdable
}

func NewHealthHandler(store Pinger, redis redis.Cmdable) *HealthHandler {
	return &HealthHandler{store: store, redis: redis}
}

// Live always reports OK.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{"status": "live"})
}

// Ready checks the storage backend and, when configured, Redis.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		w.Header().Set("Retry-After", "5")
		RespondError(w, r, http.StatusServiceUnavailable, "health/storage-unavailable", "storage unavailable")
		return
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			problem.WriteDetails(w, r, problem.Details{
				Status: http.StatusServiceUnavailable,
				Type:   problem.Type("health/redis-unavailable"),
				Code:   "cache_unavailable",
				Detail: "redis unavailable",
			})
			return
		}
	}

	RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
