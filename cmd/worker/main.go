// Package main provides the background feed refresh worker.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/outbackwarning/outbackwarning/internal/api/response"
	"github.com/outbackwarning/outbackwarning/internal/app"
	"github.com/outbackwarning/outbackwarning/internal/config"
	"github.com/outbackwarning/outbackwarning/internal/feedcache"
	"github.com/outbackwarning/outbackwarning/internal/provider/resilience"
	"github.com/outbackwarning/outbackwarning/internal/telemetry"
	"github.com/outbackwarning/outbackwarning/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "outbackwarning-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := telemetry.NewLogger(os.Stdout, cfg.Log(serviceName, Version))
	log.Info().
		Str("build_time", BuildTime).
		Msg("starting refresh worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := telemetry.Init(ctx, cfg.Telemetry(serviceName, Version))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	// The worker only fills the shared snapshot table; without a database
	// it keeps its own process warm, which is useful for local runs.
	pool, err := app.OpenDatabase(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	if pool != nil {
		defer pool.Close()
	}

	registry := resilience.NewRegistry()
	feeds, err := app.NewFeedService(ctx, cfg, app.NewProviders(cfg.Feeds, registry, log), pool, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize feed cache")
	}

	refreshConfig := worker.DefaultRefreshConfig()
	refreshConfig.Interval = cfg.RefreshInterval
	refreshConfig.Schedule = cfg.RefreshSchedule

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:    refreshConfig,
		Logger:    log.With().Str("component", "refresh").Logger(),
		Refresher: feeds,
	})

	scheduler, err := worker.NewScheduler(ctx, job, log)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid refresh schedule")
	}

	// Fill the caches once before the first scheduled run.
	go job.Run(ctx)
	scheduler.Start()

	var pubsubHandler *worker.PubSubHandler
	if cfg.PubSub.ProjectID != "" {
		pubsubHandler, err = worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSub.ProjectID,
			SubscriptionName: cfg.PubSub.Subscription,
			RefreshJob:       job,
			Logger:           log.With().Str("component", "pubsub").Logger(),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		go func() {
			if err := pubsubHandler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	} else {
		log.Info().Msg("PUBSUB_PROJECT_ID not set, running on schedule only")
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      healthRouter(job, feeds, registry),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()
	scheduler.Stop()
	if pubsubHandler != nil {
		if err := pubsubHandler.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close pubsub client")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

// healthRouter exposes liveness plus refresh statistics for the platform's
// health checks.
func healthRouter(job *worker.RefreshJob, feeds *feedcache.Service, registry *resilience.Registry) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		providers := make(map[string]string)
		for _, h := range registry.GetAllHealth() {
			providers[h.Name] = h.Status()
		}
		response.JSON(w, r, http.StatusOK, map[string]interface{}{
			"status":    "healthy",
			"version":   Version,
			"refresh":   job.MetricsSnapshot(),
			"feeds":     feeds.Statuses(),
			"providers": providers,
		})
	})
	return r
}
