package di

import (
	"net/http"

	"jirai-backend/internal/config"
	"jirai-backend/internal/infrastructure/observability"
	"jirai-backend/internal/interfaces/http/handlers"
	"jirai-backend/internal/middleware"
	"jirai-backend/pkg/api"
	"jirai-backend/pkg/auth"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterDeps is everything SetupRouter mounts.
type RouterDeps struct {
	Config      *config.Config
	Logger      *zap.Logger
	Handler     *handlers.Handler
	Health      *handlers.HealthHandler
	Verifier    auth.Verifier
	RateLimiter *middleware.UserRateLimiter
	Metrics     *observability.Collector
	// Files serves in-memory attachments; nil when an object store is used.
	Files http.HandlerFunc
}

// SetupRouter builds the HTTP surface: public health, metrics and docs at
// the root and the authenticated API under /api/v1.
func SetupRouter(d RouterDeps) *chi.Mux {
	cfg := d.Config
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.AccessLog(d.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Security.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader, middleware.VersionHeader},
		ExposedHeaders:   []string{"Location", "Retry-After", middleware.RequestIDHeader, middleware.VersionHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if cfg.Features.EnableMetrics {
		r.Use(observability.MetricsMiddleware(d.Metrics))
	}
	if cfg.Features.EnableTracing {
		r.Use(observability.TracingMiddleware(cfg.Tracing.ServiceName))
	}
	if cfg.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	}

	r.Get("/health", d.Health.Liveness)
	r.Get("/ready", d.Health.Readiness)
	r.Get("/swagger", api.SwaggerHandler())
	if cfg.Features.EnableMetrics {
		r.Handle("/metrics", d.Metrics.Handler())
	}
	if d.Files != nil {
		r.Get(filesPrefix+"/*", d.Files)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.CircuitBreaker.Enabled {
			r.Use(middleware.CircuitBreaker("api", cfg.CircuitBreaker, d.Logger))
		}
		r.Use(middleware.Versioning("1"))
		r.Use(middleware.Authenticate(d.Verifier, d.Logger))
		r.Use(d.RateLimiter.Middleware)
		d.Handler.Routes(r)
	})

	return r
}
