package risk

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/outbackwarning/outbackwarning/internal/district"
	"github.com/outbackwarning/outbackwarning/internal/feedcache"
	"github.com/outbackwarning/outbackwarning/internal/geocode"
	"github.com/outbackwarning/outbackwarning/internal/hazard"
)

// FeedReader supplies feed snapshots to the scorer.
type FeedReader interface {
	Current(ctx context.Context, cachedOnly bool) feedcache.Snapshot
}

// Options adjusts a single scoring request.
type Options struct {
	// HotspotsDisabled treats the hotspot set as empty (low-bandwidth mode).
	HotspotsDisabled bool

	// CachedOnly scores against whatever is cached without refreshing feeds.
	CachedOnly bool
}

// Config holds the scorer's collaborators.
type Config struct {
	Geocoder geocode.Geocoder
	Feeds    FeedReader
	Logger   zerolog.Logger
	Metrics  *Metrics
}

// Scorer geocodes a query and scores it against the cached feeds.
type Scorer struct {
	geocoder geocode.Geocoder
	feeds    FeedReader
	logger   zerolog.Logger
	metrics  *Metrics
}

// NewScorer creates a Scorer.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{
		geocoder: cfg.Geocoder,
		feeds:    cfg.Feeds,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

// Assessment is a scored query with the context used to score it.
type Assessment struct {
	Result Result `json:"result"`

	// Location is nil when the query could not be geocoded.
	Location *geocode.Result `json:"location,omitempty"`

	// RatingDistrict is the district whose rating weighted the score:
	// the caller's district, or the one detected from the location.
	RatingDistrict string    `json:"ratingDistrict,omitempty"`
	Breakdown      Breakdown `json:"breakdown"`
}

// ComputeRisk scores query. districtName, when non-empty, is resolved to a
// canonical district whose rating weights the score, and is echoed as given
// in the result. It never fails.
func (s *Scorer) ComputeRisk(ctx context.Context, query, districtName string, opts Options) Result {
	return s.Assess(ctx, query, districtName, opts).Result
}

// Assess is ComputeRisk with the location and breakdown.
func (s *Scorer) Assess(ctx context.Context, query, districtName string, opts Options) Assessment {
	loc, err := s.geocoder.Geocode(ctx, query)
	if err != nil {
		s.logger.Debug().Err(err).Str("query", query).Msg("geocode failed")
		s.metrics.recordGeocodeFailure(ctx)
		res := GeocodeFailed(districtName)
		s.metrics.recordScore(ctx, res.Score, false)
		return Assessment{Result: res, Breakdown: Breakdown{Multiplier: 1}}
	}

	snap := s.feeds.Current(ctx, opts.CachedOnly)

	var ratingDistrict string
	if explicit := strings.TrimSpace(districtName); explicit != "" {
		ratingDistrict = district.ResolveName(explicit)
		if ratingDistrict == district.Unknown {
			s.logger.Debug().Str("district", explicit).Msg("district not recognised")
		}
	} else if detected, ok := district.Detect(loc.Coordinate); ok {
		ratingDistrict = detected
	}

	var hotspots []hazard.HotspotPoint
	if !opts.HotspotsDisabled {
		hotspots = snap.Hotspots
	}

	res, bd := Evaluate(loc.Coordinate, Inputs{
		Incidents: snap.Incidents,
		Polygons:  snap.Warnings.Polygons,
		Hotspots:  hotspots,
		District:  ratingDistrict,
		Ratings:   snap.Ratings,
	})
	res.District = districtName

	s.metrics.recordScore(ctx, res.Score, true)
	s.logger.Debug().
		Str("query", query).
		Float64("score", res.Score).
		Str("rating_district", ratingDistrict).
		Strs("tags", res.Tags).
		Msg("risk computed")

	return Assessment{
		Result:         res,
		Location:       &loc,
		RatingDistrict: ratingDistrict,
		Breakdown:      bd,
	}
}
