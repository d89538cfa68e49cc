// Package risk combines hazard feeds into a bounded per-location score with
// human-readable contributing-factor tags.
package risk

import (
	"fmt"
	"math"
	"strings"

	"github.com/outbackwarning/outbackwarning/internal/district"
	"github.com/outbackwarning/outbackwarning/internal/geo"
	"github.com/outbackwarning/outbackwarning/internal/hazard"
)

// Scoring constants.
const (
	FalloffKm          = 50.0
	VeryCloseKm        = 5.0
	NearKm             = 15.0
	WithinKm           = 30.0
	WarningBonus       = 0.25
	HotspotBonus       = 0.15
	HotspotRadiusKm    = 20.0
	MaxHotspotsScanned = 500
)

// Tags.
const (
	TagGeocodeFailed = "could not geocode location"
	TagVeryClose     = "very close to active incident (<5 km)"
	TagNear          = "near active incident (<15 km)"
	TagWithin30      = "within 30 km of incident"
	TagInsideWarning = "inside warning area"
	TagNearHotspot   = "near recent heat hotspot"
	TagNothingNearby = "no nearby incidents or warnings"
)

// RatingTag formats the severity tag for a district.
func RatingTag(districtName string, level hazard.RatingLevel) string {
	return fmt.Sprintf("rating today in %s: %s", districtName, level)
}

// Result is the outcome of scoring one location.
type Result struct {
	// Score is in [0, 1], rounded to 2 decimals.
	Score float64 `json:"score"`

	// District echoes the caller-supplied district, if any.
	District string `json:"district,omitempty"`

	// Tags lists contributing factors in the order they were applied.
	Tags []string `json:"tags"`
}

// Inputs are the feed snapshots a score is computed from.
type Inputs struct {
	Incidents []hazard.IncidentPoint
	Polygons  []hazard.WarningPolygon

	// Hotspots is nil or empty when hotspots are disabled.
	Hotspots []hazard.HotspotPoint

	// District selects the rating used for weighting. Empty skips weighting.
	District string
	Ratings  hazard.DistrictRatings
}

// Breakdown records each contribution to a score.
type Breakdown struct {
	NearestIncidentKm *float64           `json:"nearestIncidentKm,omitempty"`
	Proximity         float64            `json:"proximity"`
	InsideWarning     bool               `json:"insideWarning"`
	NearHotspot       bool               `json:"nearHotspot"`
	Base              float64            `json:"base"`
	Rating            hazard.RatingLevel `json:"rating,omitempty"`
	Multiplier        float64            `json:"multiplier"`
}

// GeocodeFailed is the result returned when a query cannot be located.
func GeocodeFailed(districtName string) Result {
	return Result{Score: 0, District: districtName, Tags: []string{TagGeocodeFailed}}
}

// Score computes the risk at c. It never fails; an invalid coordinate scores
// like a failed geocode.
func Score(c geo.Coordinate, in Inputs) Result {
	r, _ := Evaluate(c, in)
	return r
}

// Evaluate is Score with the per-step breakdown.
func Evaluate(c geo.Coordinate, in Inputs) (Result, Breakdown) {
	bd := Breakdown{Multiplier: 1}
	if !c.Valid() {
		return GeocodeFailed(in.District), bd
	}

	tags := make([]string, 0, 4)
	base := 0.0

	if d, ok := geo.NearestDistanceKm(c, hazard.IncidentCoordinates(in.Incidents)); ok {
		bd.NearestIncidentKm = &d
		bd.Proximity = clamp(1 - math.Min(d, FalloffKm)/FalloffKm)
		base += bd.Proximity

		switch {
		case d <= VeryCloseKm:
			tags = append(tags, TagVeryClose)
		case d <= NearKm:
			tags = append(tags, TagNear)
		case d <= WithinKm:
			tags = append(tags, TagWithin30)
		}
	}

	for _, p := range in.Polygons {
		if p.Contains(c) {
			bd.InsideWarning = true
			base += WarningBonus
			tags = append(tags, TagInsideWarning)
			break
		}
	}

	if len(in.Hotspots) > 0 {
		if geo.WithinKm(c, hazard.HotspotCoordinates(in.Hotspots), HotspotRadiusKm, MaxHotspotsScanned) >= 0 {
			bd.NearHotspot = true
			base += HotspotBonus
			tags = append(tags, TagNearHotspot)
		}
	}
	hazardTags := len(tags)

	base = clamp(base)
	bd.Base = base

	weight := 1.0
	if name := strings.TrimSpace(in.District); name != "" {
		level := hazard.RatingUnknown
		if name != district.Unknown {
			level = district.RatingFor(in.Ratings, name)
		}
		weight = level.Multiplier()
		bd.Rating = level
		tags = append(tags, RatingTag(name, level))
	}
	bd.Multiplier = weight

	score := round2(clamp(base * weight))
	if score == 0 && hazardTags == 0 {
		tags = append(tags, TagNothingNearby)
	}

	return Result{Score: score, District: in.District, Tags: tags}, bd
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
