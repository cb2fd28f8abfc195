package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/pairpoints/internal/adapter/http/handler"
	"github.com/iho/pairpoints/internal/adapter/http/middleware"
	"github.com/iho/pairpoints/internal/infrastructure/auth"
	"github.com/iho/pairpoints/internal/infrastructure/metrics"
	"github.com/iho/pairpoints/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler   *handler.AccountHandler
	TransferHandler  *handler.TransferHandler
	TimeoutHandler   *handler.TimeoutHandler
	HealthHandler    *handler.HealthHandler
	IdempotencyStore usecase.IdempotencyStore
	JWTManager       *auth.JWTManager
	Metrics          *metrics.Metrics
	Logger           zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}

	// Operational endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}
		if cfg.JWTManager != nil {
			r.Use(middleware.AuthMiddleware(cfg.JWTManager))
		}

		// Accounts and pairing
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Get("/{id}/transactions", cfg.TransferHandler.ListByAccount)
			r.Get("/{id}/timeouts", cfg.TimeoutHandler.ListByUser)
			r.Get("/{id}/allowance", cfg.TimeoutHandler.Allowance)
		})

		// Connections
		r.Route("/connections", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Pair)
			r.Get("/{id}", cfg.AccountHandler.GetConnection)
			r.Get("/{id}/transactions", cfg.TransferHandler.ListByConnection)
			r.Get("/{id}/timeout", cfg.TimeoutHandler.Status)
		})

		// Transfers
		r.Route("/transfers", func(r chi.Router) {
			r.Post("/", cfg.TransferHandler.Create)
			r.Get("/{id}", cfg.TransferHandler.Get)
		})

		// Timeouts
		r.Post("/timeouts", cfg.TimeoutHandler.Request)

		// Ledger maintenance
		r.Get("/ledger/consistency", cfg.AccountHandler.Consistency)
	})

	return r
}
