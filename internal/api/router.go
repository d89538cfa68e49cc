// Package api provides the HTTP API for Outback Early Warning.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/outbackwarning/outbackwarning/internal/api/handler"
	"github.com/outbackwarning/outbackwarning/internal/api/middleware"
	"github.com/outbackwarning/outbackwarning/internal/featureflags"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	RequireTLS  bool

	Scorer             handler.RiskAssessor
	Feeds              handler.FeedReader
	FeedStatus         handler.FeedStatusReader
	Providers          handler.ProviderHealthReader
	FeatureFlagService *featureflags.Service
	OperatorTokens     middleware.TokenValidator
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "outbackwarning-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))

	opsHandler := handler.NewOpsHandler(handler.OpsHandlerConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Feeds:     cfg.FeedStatus,
		Providers: cfg.Providers,
		Flags:     cfg.FeatureFlagService,
	})
	riskHandler := handler.NewRiskHandler(cfg.Scorer, cfg.FeatureFlagService)
	hazardHandler := handler.NewHazardHandler(cfg.Feeds, cfg.FeatureFlagService)
	mapHandler := handler.NewMapHandler(cfg.Feeds, cfg.FeatureFlagService)
	featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService, cfg.Logger)

	operatorAuth := middleware.OperatorAuth(cfg.OperatorTokens)

	// Risk requests geocode, so they get the tighter limit.
	riskRateLimit := middleware.RateLimitByIP(middleware.RiskRateLimit)
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(operatorAuth).Get("/status", opsHandler.SystemStatus)
		})

		r.With(riskRateLimit).Get("/risk", riskHandler.GetRisk)

		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/districts", hazardHandler.ListDistricts)
			r.Get("/ratings", hazardHandler.ListRatings)
			r.Get("/feed", hazardHandler.GetFeed)
			r.Get("/contacts", hazardHandler.ListContacts)

			r.Route("/map", func(r chi.Router) {
				r.Get("/incidents", mapHandler.Incidents)
				r.Get("/warnings", mapHandler.Warnings)
				r.Get("/hotspots", mapHandler.Hotspots)
			})
		})

		// Operator endpoints
		r.Route("/admin", func(r chi.Router) {
			r.Use(operatorAuth)
			r.Use(middleware.RateLimitByOperator(middleware.AdminRateLimit))

			r.Route("/feature-flags", func(r chi.Router) {
				r.Get("/", featureFlagsHandler.ListFeatureFlags)
				r.Put("/", featureFlagsHandler.UpsertFeatureFlags)
				r.Post("/invalidate", featureFlagsHandler.InvalidateCache)
				r.Delete("/{key}", featureFlagsHandler.ResetFeatureFlag)
			})
		})
	})

	return r
}
