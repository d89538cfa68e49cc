package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/outbackwarning/outbackwarning/internal/api"
	"github.com/outbackwarning/outbackwarning/internal/api/middleware"
	"github.com/outbackwarning/outbackwarning/internal/app"
	"github.com/outbackwarning/outbackwarning/internal/auth"
	"github.com/outbackwarning/outbackwarning/internal/config"
	"github.com/outbackwarning/outbackwarning/internal/featureflags"
	"github.com/outbackwarning/outbackwarning/internal/geocode"
	"github.com/outbackwarning/outbackwarning/internal/geocode/nominatim"
	"github.com/outbackwarning/outbackwarning/internal/provider/resilience"
	"github.com/outbackwarning/outbackwarning/internal/risk"
	"github.com/outbackwarning/outbackwarning/internal/telemetry"
)

func runServer(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := telemetry.NewLogger(os.Stdout, cfg.Log(serviceName, Version))
	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Environment).
		Msg("starting Outback Early Warning API")

	tp, err := telemetry.Init(ctx, cfg.Telemetry(serviceName, Version))
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		return fmt.Errorf("initialize metrics: %w", err)
	}

	pool, err := app.OpenDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	registry := resilience.NewRegistry()

	providers := app.NewProviders(cfg.Feeds, registry, log)
	feeds, err := app.NewFeedService(ctx, cfg, providers, pool, log)
	if err != nil {
		return fmt.Errorf("initialize feed cache: %w", err)
	}
	log.Info().Msg("feed cache initialized")

	geocoder, err := geocode.NewCachedGeocoder(nominatim.NewClient(nominatim.ClientConfig{
		BaseURL:  cfg.Geocoding.BaseURL,
		Region:   cfg.Geocoding.Region,
		Timeout:  cfg.Feeds.HTTPTimeout,
		Registry: registry,
	}), cfg.Geocoding.CacheSize)
	if err != nil {
		return fmt.Errorf("initialize geocoder: %w", err)
	}

	riskMetrics, err := risk.NewMetrics()
	if err != nil {
		return fmt.Errorf("initialize risk metrics: %w", err)
	}
	scorer := risk.NewScorer(risk.Config{
		Geocoder: geocoder,
		Feeds:    feeds,
		Logger:   log.With().Str("component", "risk").Logger(),
		Metrics:  riskMetrics,
	})

	var ffRepo featureflags.Repository
	if pool != nil {
		pgRepo := featureflags.NewPostgresRepository(pool)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("feature flag schema: %w", err)
		}
		ffRepo = pgRepo
	}
	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: ffRepo,
		Logger:     log,
		CacheTTL:   1 * time.Minute,
	})
	log.Info().Msg("feature flags service initialized")

	tokens := auth.NewTokenService(auth.TokenConfig{SigningKey: cfg.OperatorSigningKey})
	if !tokens.Enabled() {
		log.Warn().Msg("OPERATOR_SIGNING_KEY not set - status and admin endpoints are disabled")
	}

	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Logger:             log,
		ServiceName:        serviceName,
		Metrics:            metrics,
		RequireTLS:         cfg.RequireTLS,
		Scorer:             scorer,
		Feeds:              feeds,
		FeedStatus:         feeds,
		Providers:          registry,
		FeatureFlagService: ffService,
		OperatorTokens:     tokens,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}
