// Package hazard defines the canonical records produced by every upstream
// hazard feed adapter and consumed by the risk scorer.
package hazard

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/outbackwarning/outbackwarning/internal/geo"
)

// Feed errors.
var (
	ErrNotFound            = errors.New("not found")
	ErrUpstreamUnavailable = errors.New("upstream feed unavailable")
	ErrInvalidCoordinate   = errors.New("invalid coordinate")
	ErrNoMatch             = errors.New("no matching district")
)

// Origin labels attached to normalized records.
const (
	SourceRFS   = "NSW RFS"
	SourceBOM   = "BOM"
	SourceFIRMS = "NASA FIRMS"
	SourceAFDRS = "AFDRS"
)

// IncidentPoint is a single active fire incident.
type IncidentPoint struct {
	Coordinate geo.Coordinate `json:"coordinate"`
	Title      string         `json:"title"`
	Status     string         `json:"status"`
	// Updated is the upstream timestamp as published (ISO 8601 or empty).
	Updated string `json:"updated"`
	URL     string `json:"url"`
	Source  string `json:"source"`
}

// WarningPolygon is one hazard area made of zero or more rings.
type WarningPolygon struct {
	Rings       [][]geo.Coordinate `json:"rings"`
	Description string             `json:"description"`
	Source      string             `json:"source"`
}

// Contains reports whether any ring of the polygon contains c.
func (w WarningPolygon) Contains(c geo.Coordinate) bool {
	return geo.AnyPolygonContains(c, w.Rings)
}

// HotspotPoint is a satellite-detected thermal anomaly.
type HotspotPoint struct {
	Coordinate geo.Coordinate `json:"coordinate"`
	Weight     float64        `json:"weight"`
}

// FeedItem is a uniform list record for the presentation layer.
type FeedItem struct {
	Time    string `json:"time"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	URL     string `json:"url"`
	Source  string `json:"source"`
}

// Warnings bundles the polygons and list items parsed from one warning feed fetch.
type Warnings struct {
	Polygons []WarningPolygon `json:"polygons"`
	Items    []FeedItem       `json:"items"`
}

// IncidentProvider fetches and normalizes an incident feed.
type IncidentProvider interface {
	FetchIncidents(ctx context.Context) ([]IncidentPoint, error)
	Name() string
}

// WarningProvider fetches and normalizes a warning feed.
type WarningProvider interface {
	FetchWarnings(ctx context.Context) (*Warnings, error)
	Name() string
}

// HotspotProvider fetches and normalizes a hotspot feed.
type HotspotProvider interface {
	FetchHotspots(ctx context.Context) ([]HotspotPoint, error)
	Name() string
}

// RatingProvider fetches today's district ratings.
type RatingProvider interface {
	FetchRatings(ctx context.Context) (DistrictRatings, error)
	Name() string
}

// IncidentCoordinates returns the coordinates of the incidents in input order.
func IncidentCoordinates(incidents []IncidentPoint) []geo.Coordinate {
	out := make([]geo.Coordinate, len(incidents))
	for i, inc := range incidents {
		out[i] = inc.Coordinate
	}
	return out
}

// HotspotCoordinates returns the coordinates of the hotspots in input order.
func HotspotCoordinates(hotspots []HotspotPoint) []geo.Coordinate {
	out := make([]geo.Coordinate, len(hotspots))
	for i, h := range hotspots {
		out[i] = h.Coordinate
	}
	return out
}

// IncidentFeedItems converts incidents into list records.
func IncidentFeedItems(incidents []IncidentPoint) []FeedItem {
	items := make([]FeedItem, 0, len(incidents))
	for _, inc := range incidents {
		items = append(items, FeedItem{
			Time:    inc.Updated,
			Title:   inc.Title,
			Summary: "Status: " + inc.Status,
			URL:     inc.URL,
			Source:  inc.Source,
		})
	}
	return items
}

// ParseFeedTime parses the timestamp formats seen across upstream feeds.
// The zero time is returned when s cannot be parsed.
func ParseFeedTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// SortFeedItems orders items newest first. Items without a parseable time sort last.
func SortFeedItems(items []FeedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return ParseFeedTime(items[i].Time).After(ParseFeedTime(items[j].Time))
	})
}
