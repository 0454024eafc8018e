// Package api provides the HTTP API for Sundose.
package api

import (
	"context"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/sundose/sundose/internal/api/handler"
	"github.com/sundose/sundose/internal/api/middleware"
	"github.com/sundose/sundose/internal/exposure"
	"github.com/sundose/sundose/internal/profile"
	"github.com/sundose/sundose/internal/uvindex"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version         string
	BuildTime       string
	Logger          zerolog.Logger
	ServiceName     string
	Metrics         *middleware.Metrics
	TokenValidator  middleware.TokenValidator
	UVCoordinator   *uvindex.Coordinator
	UVCache         *uvindex.Service
	ExposureService *exposure.Service
	ProfileService  *profile.Service
	ReadyCheck      func(ctx context.Context) error
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "sundose-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:    cfg.Version,
		BuildTime:  cfg.BuildTime,
		Cache:      cfg.UVCache,
		Sessions:   cfg.ExposureService,
		ReadyCheck: cfg.ReadyCheck,
	})
	uvHandler := handler.NewUVHandler(cfg.UVCoordinator, cfg.ProfileService)
	exposureHandler := handler.NewExposureHandler(cfg.ExposureService, cfg.ProfileService)
	profileHandler := handler.NewProfileHandler(cfg.ProfileService)

	// Create auth middleware
	authMiddleware := middleware.Auth(cfg.TokenValidator)

	// Rate limits per endpoint category
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Current UV conditions. Each call may fan out to the forecast
		// provider, so the stricter limit applies.
		r.Route("/uv", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(expensiveRateLimit)
			r.Get("/current", uvHandler.GetCurrent)
		})

		// Exposure tracking (authenticated) - user-based rate limiting
		r.Route("/exposure", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RateLimitByUser(middleware.StandardRateLimit)) // 100 req/min per user

			r.Route("/sessions", func(r chi.Router) {
				r.Get("/", exposureHandler.ListSessions)
				r.Post("/", exposureHandler.BeginSession)
				r.Post("/end", exposureHandler.EndSession)
				r.Get("/current", exposureHandler.CurrentSession)
				r.Put("/current/uv", exposureHandler.SetManualUV)
			})
			r.Get("/days", exposureHandler.DailySummary)
		})

		// Profile (authenticated)
		r.Route("/profile", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(standardRateLimit)
			r.Get("/", profileHandler.GetProfile)
			r.Put("/", profileHandler.UpdateProfile)
		})
	})

	return r
}
