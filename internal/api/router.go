package api

import (
	"net/http"

	"github.com/ayo6706/profitwave/internal/api/handler"
	"github.com/ayo6706/profitwave/internal/api/middleware"
	"github.com/ayo6706/profitwave/internal/api/problem"
	"github.com/ayo6706/profitwave/internal/api/spec"
	"github.com/ayo6706/profitwave/internal/config"
	"github.com/ayo6706/profitwave/internal/domain"
	"github.com/ayo6706/profitwave/internal/idempotency"
	"github.com/ayo6706/profitwave/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type Router struct {
	cfg       *config.Config
	logger    *zap.Logger
	store     handler.Pinger
	redis     redis.Cmdable
	idemStore *idempotency.Store
	svc       *service.Services
}

func NewRouter(cfg *config.Config, logger *zap.Logger, store handler.Pinger, idemStore *idempotency.Store, rdb redis.Cmdable, svc *service.Services) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	middleware.SetJWTSecret(cfg.AuthSecret)
	middleware.SetJWTValidation(cfg.AuthIssuer, cfg.AuthAudience)
	middleware.SetTrustProxyHeaders(cfg.TrustProxyHeaders)
	return &Router{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		redis:     rdb,
		idemStore: idemStore,
		svc:       svc,
	}
}

// Routes builds the HTTP handler tree, CORS included.
func (api *Router) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.RecoverMiddleware(api.logger))
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		problem.Write(w, r, http.StatusNotFound, problem.Type("route/not-found"), "", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		problem.WriteDetails(w, r, problem.Details{
			Status: http.StatusMethodNotAllowed,
			Type:   problem.Type("route/method-not-allowed"),
			Code:   "method_not_allowed",
			Detail: "method not allowed",
		})
	})

	healthHandler := handler.NewHealthHandler(api.store, api.redis)
	userHandler := handler.NewUserHandler(api.svc.Users, api.svc.Accounts, api.svc.Activity)
	accountHandler := handler.NewAccountHandler(api.svc.Accounts)
	depositHandler := handler.NewDepositHandler(api.svc.Deposits)
	withdrawalHandler := handler.NewWithdrawalHandler(api.svc.Withdrawals)
	investmentHandler := handler.NewInvestmentHandler(api.svc.Investments)
	supportHandler := handler.NewSupportHandler(api.svc.Support)
	adminHandler := handler.NewAdminHandler(api.svc.Notifications, api.svc.Stats)

	// Ops
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", spec.OpenAPIHandler())
	r.Head("/openapi.yaml", spec.OpenAPIHandler())
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))

	// Public catalog
	r.With(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS)).Get("/v1/plans", investmentHandler.Plans)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		r.Post("/v1/me", userHandler.Signup)

		r.Group(func(r chi.Router) {
			r.Use(middleware.LoadUser(api.svc.Users))

			r.Get("/v1/me", userHandler.Me)
			r.Put("/v1/me/profile", userHandler.UpdateProfile)
			r.Get("/v1/me/activity", userHandler.MyActivity)
			r.Get("/v1/me/balance", accountHandler.GetBalance)
			r.Get("/v1/me/ledger", accountHandler.GetStatement)

			r.Post("/v1/deposits", depositHandler.Confirm)
			r.Get("/v1/deposits", depositHandler.ListMine)

			r.With(middleware.IdempotencyMiddleware(api.idemStore, api.logger)).Post("/v1/withdrawals", withdrawalHandler.Request)
			r.Get("/v1/withdrawals", withdrawalHandler.ListMine)

			r.Post("/v1/investments", investmentHandler.Purchase)
			r.Get("/v1/investments", investmentHandler.ListMine)

			r.Post("/v1/support/messages", supportHandler.Send)
			r.Get("/v1/support/messages", supportHandler.Thread)

			r.Route("/v1/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin))

				r.Get("/users", userHandler.ListUsers)
				r.Get("/users/{id}", userHandler.GetUser)
				r.Get("/users/{id}/activity", userHandler.UserActivity)

				r.Get("/deposits", depositHandler.List)
				r.Get("/deposits/{id}", depositHandler.Get)
				r.Post("/deposits/{id}/approve", depositHandler.Approve)
				r.Post("/deposits/{id}/reject", depositHandler.Reject)

				r.Get("/withdrawals", withdrawalHandler.List)
				r.Get("/withdrawals/{id}", withdrawalHandler.Get)
				r.Post("/withdrawals/{id}/approve", withdrawalHandler.Approve)
				r.Post("/withdrawals/{id}/reject", withdrawalHandler.Reject)

				r.Get("/notifications", adminHandler.Notifications)
				r.Post("/notifications/{id}/read", adminHandler.MarkNotificationRead)
				r.Get("/stats", adminHandler.Stats)

				r.Get("/support/threads", supportHandler.Threads)
				r.Get("/support/threads/{userID}", supportHandler.AdminThread)
				r.Post("/support/threads/{userID}", supportHandler.Reply)
			})
		})
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   api.cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Idempotency-Key", "X-Trace-ID"},
		ExposedHeaders:   []string{"X-Trace-ID", "X-Idempotent-Replay", "Retry-After"},
		AllowCredentials: false,
	})
	return c.Handler(r)
}
