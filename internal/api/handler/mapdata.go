package handler

import (
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/outbackwarning/outbackwarning/internal/api/models"
	"github.com/outbackwarning/outbackwarning/internal/api/response"
	"github.com/outbackwarning/outbackwarning/internal/featureflags"
	"github.com/outbackwarning/outbackwarning/internal/hazard"
	"github.com/outbackwarning/outbackwarning/pkg/polyline"
)

// Incident marker colours.
const (
	ColorOutOfControl    = "#e63946"
	ColorBeingControlled = "#ffa500"
	ColorOther           = "#228b22"
)

// defaultIncidentStatus is shown when the upstream publishes no status.
const defaultIncidentStatus = "No official status published"

// StatusColor maps an incident status to its marker colour.
func StatusColor(status string) string {
	s := strings.ToLower(status)
	switch {
	case strings.Contains(s, "out of control"):
		return ColorOutOfControl
	case strings.Contains(s, "being controlled"):
		return ColorBeingControlled
	default:
		return ColorOther
	}
}

// MapHandler serves map layers.
type MapHandler struct {
	feeds FeedReader
	flags *featureflags.Service
	now   func() time.Time
}

// NewMapHandler creates a new MapHandler. flags may be nil.
func NewMapHandler(feeds FeedReader, flags *featureflags.Service) *MapHandler {
	return &MapHandler{feeds: feeds, flags: flags, now: time.Now}
}

// Incidents handles GET /v1/map/incidents - incidents as a GeoJSON
// FeatureCollection suitable for ArcGIS import.
func (h *MapHandler) Incidents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	incidents := h.feeds.Current(ctx, h.flags.IsCachedOnlyFeeds(ctx)).Incidents

	fc := models.NewFeatureCollection(len(incidents))
	generatedAt := models.Timestamp(h.now().UTC())
	fc.GeneratedAt = &generatedAt

	for _, inc := range incidents {
		if !inc.Coordinate.Valid() {
			continue
		}
		status := inc.Status
		if status == "" {
			status = defaultIncidentStatus
		}
		source := inc.Source
		if source == "" {
			source = hazard.SourceRFS
		}
		fc.Features = append(fc.Features, models.Feature{
			Type:     "Feature",
			Geometry: models.PointGeometry(inc.Coordinate.Lat, inc.Coordinate.Lon),
			Properties: map[string]interface{}{
				"title":   inc.Title,
				"status":  status,
				"updated": inc.Updated,
				"url":     inc.URL,
				"source":  source,
				"color":   StatusColor(status),
			},
		})
	}

	response.GeoJSON(w, r, fc)
}

// Hotspots handles GET /v1/map/hotspots. The layer is empty while hotspots
// are disabled.
func (h *MapHandler) Hotspots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var hotspots []hazard.HotspotPoint
	if !h.flags.HotspotsDisabled(ctx) {
		hotspots = h.feeds.Current(ctx, h.flags.IsCachedOnlyFeeds(ctx)).Hotspots
	}

	fc := models.NewFeatureCollection(len(hotspots))
	for _, hs := range hotspots {
		if !hs.Coordinate.Valid() {
			continue
		}
		fc.Features = append(fc.Features, models.Feature{
			Type:       "Feature",
			Geometry:   models.PointGeometry(hs.Coordinate.Lat, hs.Coordinate.Lon),
			Properties: map[string]interface{}{"weight": hs.Weight},
		})
	}

	response.GeoJSON(w, r, fc)
}

// Warnings handles GET /v1/map/warnings - warning areas with
// polyline-encoded rings.
func (h *MapHandler) Warnings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	polygons := h.feeds.Current(ctx, h.flags.IsCachedOnlyFeeds(ctx)).Warnings.Polygons

	items := make([]models.WarningArea, 0, len(polygons))
	for _, p := range polygons {
		area := models.WarningArea{
			Description: p.Description,
			Source:      p.Source,
			Rings:       make([]string, 0, len(p.Rings)),
		}
		var perimeter float64
		for _, ring := range p.Rings {
			if len(ring) < 3 {
				continue
			}
			area.Rings = append(area.Rings, polyline.Encode(ring))
			perimeter += polyline.PerimeterKm(ring)
		}
		if len(area.Rings) == 0 {
			continue
		}
		area.PerimeterKm = math.Round(perimeter*10) / 10
		items = append(items, area)
	}

	response.JSON(w, r, http.StatusOK, models.WarningAreaList{Items: items})
}
