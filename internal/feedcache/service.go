package feedcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/outbackwarning/outbackwarning/internal/hazard"
)

// Source keys and badge names.
const (
	KeyIncidents = "incidents"
	KeyWarnings  = "warnings"
	KeyHotspots  = "hotspots"
	KeyRatings   = "ratings"

	NameIncidents = "NSW RFS incidents"
	NameWarnings  = "BOM warnings (CAP)"
	NameHotspots  = "NASA FIRMS hotspots"
	NameRatings   = "AFDRS ratings"
)

// TTLs holds per-source lifetimes.
type TTLs struct {
	Incidents time.Duration
	Warnings  time.Duration
	Hotspots  time.Duration
	Ratings   time.Duration
}

// DefaultTTLs returns the standard lifetimes: incidents and warnings 15
// minutes, hotspots 30 minutes, ratings 60 minutes.
func DefaultTTLs() TTLs {
	return TTLs{
		Incidents: 15 * time.Minute,
		Warnings:  15 * time.Minute,
		Hotspots:  30 * time.Minute,
		Ratings:   60 * time.Minute,
	}
}

// ServiceConfig holds the upstream providers and cache settings.
type ServiceConfig struct {
	Incidents hazard.IncidentProvider
	Warnings  hazard.WarningProvider
	Ratings   hazard.RatingProvider

	// Hotspots is optional; nil leaves the hotspot set empty.
	Hotspots hazard.HotspotProvider

	TTLs           TTLs
	FailureBackoff time.Duration

	// Store persists last good snapshots (optional).
	Store SnapshotStore

	Clock   clockwork.Clock
	Logger  zerolog.Logger
	Metrics *Metrics
}

// Service owns one cache slot per upstream feed. It is constructed once at
// process start and shared by every consumer.
type Service struct {
	incidents *Source[[]hazard.IncidentPoint]
	warnings  *Source[hazard.Warnings]
	hotspots  *Source[[]hazard.HotspotPoint]
	ratings   *Source[hazard.DistrictRatings]
	logger    zerolog.Logger
}

// NewService creates the cache service. All sources start empty.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Incidents == nil || cfg.Warnings == nil || cfg.Ratings == nil {
		return nil, errors.New("feedcache: incident, warning and rating providers are required")
	}

	defaults := DefaultTTLs()
	ttl := func(v, d time.Duration) time.Duration {
		if v <= 0 {
			return d
		}
		return v
	}

	hotspotFetch := func(context.Context) ([]hazard.HotspotPoint, error) {
		return []hazard.HotspotPoint{}, nil
	}
	if cfg.Hotspots != nil {
		hotspotFetch = cfg.Hotspots.FetchHotspots
	}

	return &Service{
		incidents: NewSource(SourceConfig[[]hazard.IncidentPoint]{
			Key:            KeyIncidents,
			Name:           NameIncidents,
			TTL:            ttl(cfg.TTLs.Incidents, defaults.Incidents),
			FailureBackoff: cfg.FailureBackoff,
			Fetch:          cfg.Incidents.FetchIncidents,
			Empty:          []hazard.IncidentPoint{},
			Count:          func(v []hazard.IncidentPoint) int { return len(v) },
			Store:          cfg.Store,
			Clock:          cfg.Clock,
			Logger:         cfg.Logger,
			Metrics:        cfg.Metrics,
		}),
		warnings: NewSource(SourceConfig[hazard.Warnings]{
			Key:            KeyWarnings,
			Name:           NameWarnings,
			TTL:            ttl(cfg.TTLs.Warnings, defaults.Warnings),
			FailureBackoff: cfg.FailureBackoff,
			Fetch: func(ctx context.Context) (hazard.Warnings, error) {
				w, err := cfg.Warnings.FetchWarnings(ctx)
				if err != nil {
					return hazard.Warnings{}, err
				}
				if w == nil {
					return hazard.Warnings{}, fmt.Errorf("%w: empty warnings result", hazard.ErrUpstreamUnavailable)
				}
				return *w, nil
			},
			Empty:   hazard.Warnings{Polygons: []hazard.WarningPolygon{}, Items: []hazard.FeedItem{}},
			Count:   func(v hazard.Warnings) int { return len(v.Polygons) },
			Store:   cfg.Store,
			Clock:   cfg.Clock,
			Logger:  cfg.Logger,
			Metrics: cfg.Metrics,
		}),
		hotspots: NewSource(SourceConfig[[]hazard.HotspotPoint]{
			Key:            KeyHotspots,
			Name:           NameHotspots,
			TTL:            ttl(cfg.TTLs.Hotspots, defaults.Hotspots),
			FailureBackoff: cfg.FailureBackoff,
			Fetch:          hotspotFetch,
			Empty:          []hazard.HotspotPoint{},
			Count:          func(v []hazard.HotspotPoint) int { return len(v) },
			Store:          cfg.Store,
			Clock:          cfg.Clock,
			Logger:         cfg.Logger,
			Metrics:        cfg.Metrics,
		}),
		ratings: NewSource(SourceConfig[hazard.DistrictRatings]{
			Key:            KeyRatings,
			Name:           NameRatings,
			TTL:            ttl(cfg.TTLs.Ratings, defaults.Ratings),
			FailureBackoff: cfg.FailureBackoff,
			Fetch:          cfg.Ratings.FetchRatings,
			Empty:          hazard.DistrictRatings{},
			Count:          func(v hazard.DistrictRatings) int { return len(v) },
			Store:          cfg.Store,
			Clock:          cfg.Clock,
			Logger:         cfg.Logger,
			Metrics:        cfg.Metrics,
		}),
		logger: cfg.Logger,
	}, nil
}

// Incidents returns the incident snapshot, refreshing it if needed.
func (s *Service) Incidents(ctx context.Context) []hazard.IncidentPoint {
	return s.incidents.Get(ctx)
}

// Warnings returns the warning snapshot, refreshing it if needed.
func (s *Service) Warnings(ctx context.Context) hazard.Warnings {
	return s.warnings.Get(ctx)
}

// Hotspots returns the hotspot snapshot, refreshing it if needed.
func (s *Service) Hotspots(ctx context.Context) []hazard.HotspotPoint {
	return s.hotspots.Get(ctx)
}

// Ratings returns today's district ratings, refreshing them if needed.
func (s *Service) Ratings(ctx context.Context) hazard.DistrictRatings {
	return s.ratings.Get(ctx)
}

// Snapshot is a read of all four feeds.
type Snapshot struct {
	Incidents []hazard.IncidentPoint
	Warnings  hazard.Warnings
	Hotspots  []hazard.HotspotPoint
	Ratings   hazard.DistrictRatings
}

// Current returns every feed, refreshing stale ones unless cachedOnly is set.
func (s *Service) Current(ctx context.Context, cachedOnly bool) Snapshot {
	if cachedOnly {
		return Snapshot{
			Incidents: s.incidents.Peek(),
			Warnings:  s.warnings.Peek(),
			Hotspots:  s.hotspots.Peek(),
			Ratings:   s.ratings.Peek(),
		}
	}
	return Snapshot{
		Incidents: s.Incidents(ctx),
		Warnings:  s.Warnings(ctx),
		Hotspots:  s.Hotspots(ctx),
		Ratings:   s.Ratings(ctx),
	}
}

// Statuses returns the freshness of every source in display order.
func (s *Service) Statuses() []Status {
	return []Status{
		s.incidents.Status(),
		s.warnings.Status(),
		s.ratings.Status(),
		s.hotspots.Status(),
	}
}

// Keys lists the source keys accepted by RefreshSource.
func Keys() []string {
	return []string{KeyIncidents, KeyWarnings, KeyHotspots, KeyRatings}
}

// ErrUnknownSource is returned by RefreshSource for an unrecognised key.
var ErrUnknownSource = errors.New("unknown feed source")

// RefreshSource forces a refresh of one source by key.
func (s *Service) RefreshSource(ctx context.Context, key string) error {
	switch key {
	case KeyIncidents:
		return s.incidents.Refresh(ctx)
	case KeyWarnings:
		return s.warnings.Refresh(ctx)
	case KeyHotspots:
		return s.hotspots.Refresh(ctx)
	case KeyRatings:
		return s.ratings.Refresh(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSource, key)
	}
}

// Warm restores persisted snapshots into every empty source. Failures are
// logged and skipped.
func (s *Service) Warm(ctx context.Context) {
	warmers := []interface {
		Warm(context.Context) error
		Key() string
	}{s.incidents, s.warnings, s.hotspots, s.ratings}

	for _, w := range warmers {
		if err := w.Warm(ctx); err != nil {
			s.logger.Warn().Err(err).Str("source", w.Key()).Msg("failed to restore snapshot")
		}
	}
}

// Invalidate marks every source stale.
func (s *Service) Invalidate() {
	s.incidents.Invalidate()
	s.warnings.Invalidate()
	s.hotspots.Invalidate()
	s.ratings.Invalidate()
}
