package http

import (
	"go.uber.org/zap"

	"github.com/maestros-hub/maestros-community-backend/internal/auth"
	"github.com/maestros-hub/maestros-community-backend/internal/infrastructure/persistence/redis"
	"github.com/maestros-hub/maestros-community-backend/internal/interface/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Applications *handlers.ApplicationsHandler
	Review       *handlers.ReviewHandler
	Stats        *handlers.StatsHandler
	Health       *handlers.HealthHandler

	AuthMiddleware *auth.Middleware
	RateLimitCache *redis.Cache

	Logger *zap.Logger
}

// RegisterRoutes wires middleware and routes onto the server.
func (s *Server) RegisterRoutes(cfg RouteConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s.app.Use(Recover(logger))
	s.app.Use(RequestTimeout(s.config.RequestTimeout))
	s.app.Use(RequestLogger(logger))

	// Health stays outside authentication.
	s.app.Get("/healthz", cfg.Health.Healthz)

	api := s.app.Group("/api/v1",
		cfg.AuthMiddleware.Handle,
		RateLimit(cfg.RateLimitCache, s.config.RateLimitPerMinute, logger),
	)

	api.Get("/applications/eligibility", cfg.Applications.Eligibility)
	api.Post("/applications", cfg.Applications.Submit)
	api.Get("/applications/:id", cfg.Applications.Get)
	api.Get("/applications", cfg.Applications.ListOwn)

	review := api.Group("/review", auth.RequireReviewer())
	review.Get("/applications", cfg.Review.ListPending)
	review.Post("/applications/:id/accept", cfg.Review.Accept)
	review.Post("/applications/:id/reject", cfg.Review.Reject)
	review.Post("/overrides/:applicantID", auth.RequireAdmin(), cfg.Review.Override)

	api.Get("/stats", cfg.Stats.Get)
}
