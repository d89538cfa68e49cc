// Package app assembles the feed cache and its upstream providers from
// configuration. It is shared by the API server and the refresh worker.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/outbackwarning/outbackwarning/internal/config"
	"github.com/outbackwarning/outbackwarning/internal/database"
	"github.com/outbackwarning/outbackwarning/internal/feedcache"
	"github.com/outbackwarning/outbackwarning/internal/hazard"
	"github.com/outbackwarning/outbackwarning/internal/hazard/afdrs"
	"github.com/outbackwarning/outbackwarning/internal/hazard/bom"
	"github.com/outbackwarning/outbackwarning/internal/hazard/firms"
	"github.com/outbackwarning/outbackwarning/internal/hazard/rfs"
	"github.com/outbackwarning/outbackwarning/internal/provider/resilience"
)

// Providers are the upstream adapters behind the feed cache.
type Providers struct {
	Incidents hazard.IncidentProvider
	Warnings  hazard.WarningProvider
	Ratings   hazard.RatingProvider

	// Hotspots is nil when no hotspot export is configured.
	Hotspots hazard.HotspotProvider
}

// NewProviders builds the adapters selected by cfg. Every default HTTP
// client reports to registry.
func NewProviders(cfg config.Feeds, registry *resilience.Registry, logger zerolog.Logger) Providers {
	rfsConfig := func(url string) rfs.ClientConfig {
		return rfs.ClientConfig{URL: url, Timeout: cfg.HTTPTimeout, Registry: registry}
	}

	var p Providers
	if cfg.IncidentsFormat == config.IncidentFormatGeoRSS {
		p.Incidents = rfs.NewGeoRSSClient(rfsConfig(cfg.IncidentsURL))
	} else {
		p.Incidents = rfs.NewIncidentClient(rfsConfig(cfg.IncidentsURL))
	}

	p.Warnings = bom.NewClient(bom.ClientConfig{
		URL:      cfg.WarningsURL,
		Timeout:  cfg.HTTPTimeout,
		Registry: registry,
	})

	// Operator ratings take precedence over the RFS feed.
	var ratings []hazard.RatingProvider
	if cfg.CustomRatingURL != "" {
		ratings = append(ratings, afdrs.NewCustomClient(afdrs.CustomConfig{
			URL:      cfg.CustomRatingURL,
			Timeout:  cfg.HTTPTimeout,
			Registry: registry,
		}))
	}
	ratings = append(ratings, rfs.NewRatingsClient(rfsConfig(cfg.RatingsURL)))
	p.Ratings = afdrs.NewChain(logger.With().Str("component", "ratings").Logger(), ratings...)

	if cfg.HotspotsURL != "" {
		p.Hotspots = firms.NewClient(firms.ClientConfig{
			URL:      cfg.HotspotsURL,
			Timeout:  cfg.HTTPTimeout,
			Registry: registry,
		})
	}

	return p
}

// OpenDatabase connects when the database is enabled. It returns a nil pool
// otherwise.
func OpenDatabase(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*pgxpool.Pool, error) {
	if !cfg.DatabaseEnabled {
		logger.Info().Msg("database disabled, snapshots and flags are kept in memory")
		return nil, nil
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	logger.Info().
		Str("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		Str("database", cfg.Database.Database).
		Msg("database connected")
	return pool, nil
}

// NewFeedService builds the feed cache over providers. With a pool, last
// good snapshots are persisted to Postgres and restored before returning.
func NewFeedService(ctx context.Context, cfg config.Config, providers Providers, pool *pgxpool.Pool, logger zerolog.Logger) (*feedcache.Service, error) {
	metrics, err := feedcache.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("feed cache metrics: %w", err)
	}

	var store feedcache.SnapshotStore
	if pool != nil {
		pgStore := feedcache.NewPostgresStore(pool)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("feed snapshot schema: %w", err)
		}
		store = pgStore
	}

	svc, err := feedcache.NewService(feedcache.ServiceConfig{
		Incidents:      providers.Incidents,
		Warnings:       providers.Warnings,
		Ratings:        providers.Ratings,
		Hotspots:       providers.Hotspots,
		TTLs:           cfg.TTLs,
		FailureBackoff: cfg.FailureBackoff,
		Store:          store,
		Logger:         logger.With().Str("component", "feedcache").Logger(),
		Metrics:        metrics,
	})
	if err != nil {
		return nil, err
	}

	if store != nil {
		svc.Warm(ctx)
	}
	return svc, nil
}
