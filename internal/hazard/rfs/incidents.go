// Package rfs adapts the NSW Rural Fire Service public feeds: major
// incidents (GeoJSON or GeoRSS) and today's district fire danger ratings.
package rfs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/outbackwarning/outbackwarning/internal/geo"
	"github.com/outbackwarning/outbackwarning/internal/hazard"
	"github.com/outbackwarning/outbackwarning/internal/provider/resilience"
)

const (
	// DefaultIncidentsURL is the GeoJSON major incidents feed.
	DefaultIncidentsURL = "https://www.rfs.nsw.gov.au/feeds/majorIncidents.json"

	// IncidentsProviderName identifies the incident upstream.
	IncidentsProviderName = "rfs-incidents"
)

// ClientConfig holds configuration shared by the RFS clients.
type ClientConfig struct {
	// URL overrides the feed URL.
	URL string

	// HTTPClient executes requests. If nil, a resilient client is created.
	HTTPClient resilience.HTTPDoer

	// Timeout for requests made by the default client (default: 10s).
	Timeout time.Duration

	// Registry receives the default client's health, if set.
	Registry *resilience.Registry
}

func (cfg ClientConfig) httpClient(name string) resilience.HTTPDoer {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient
	}
	rc := resilience.DefaultClientConfig(name)
	if cfg.Timeout > 0 {
		rc.Timeout = cfg.Timeout
	}
	rc.Registry = cfg.Registry
	return resilience.NewClient(rc)
}

// IncidentClient reads the GeoJSON major incidents feed.
type IncidentClient struct {
	url        string
	httpClient resilience.HTTPDoer
}

// NewIncidentClient creates a GeoJSON incident client.
func NewIncidentClient(cfg ClientConfig) *IncidentClient {
	url := cfg.URL
	if url == "" {
		url = DefaultIncidentsURL
	}
	return &IncidentClient{
		url:        url,
		httpClient: cfg.httpClient(IncidentsProviderName),
	}
}

// Name returns the provider name.
func (c *IncidentClient) Name() string {
	return IncidentsProviderName
}

type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	Geometry   *geometry         `json:"geometry"`
	Properties incidentPropsJSON `json:"properties"`
}

type geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
	Geometries  []geometry      `json:"geometries"`
}

// incidentPropsJSON tolerates non-string values for the free-form fields.
type incidentPropsJSON struct {
	Title       any `json:"title"`
	Status      any `json:"status"`
	StatusText  any `json:"statusText"`
	Type        any `json:"type"`
	Size        any `json:"size"`
	Updated     any `json:"updated"`
	PubDate     any `json:"pubDate"`
	Link        any `json:"link"`
	Description any `json:"description"`
}

// FetchIncidents downloads and normalizes the incident feed.
func (c *IncidentClient) FetchIncidents(ctx context.Context) ([]hazard.IncidentPoint, error) {
	body, err := resilience.Get(ctx, c.httpClient, c.url, "application/json")
	if err != nil {
		return nil, fmt.Errorf("%w: rfs incidents: %w", hazard.ErrUpstreamUnavailable, err)
	}
	return ParseIncidents(body)
}

// ParseIncidents normalizes a GeoJSON FeatureCollection. Features without a
// usable point are skipped.
func ParseIncidents(body []byte) ([]hazard.IncidentPoint, error) {
	var fc featureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, fmt.Errorf("%w: decode rfs incidents: %w", hazard.ErrUpstreamUnavailable, err)
	}

	points := make([]hazard.IncidentPoint, 0, len(fc.Features))
	for _, f := range fc.Features {
		coord, ok := f.Geometry.point()
		if !ok {
			continue
		}
		points = append(points, f.Properties.toIncident(coord))
	}
	return points, nil
}

// point extracts a [lon, lat] position from a Point, or the first Point of
// a GeometryCollection.
func (g *geometry) point() (geo.Coordinate, bool) {
	if g == nil {
		return geo.Coordinate{}, false
	}
	if len(g.Geometries) > 0 {
		for i := range g.Geometries {
			if c, ok := g.Geometries[i].point(); ok {
				return c, true
			}
		}
		return geo.Coordinate{}, false
	}

	var pos []*float64
	if err := json.Unmarshal(g.Coordinates, &pos); err != nil || len(pos) != 2 {
		return geo.Coordinate{}, false
	}
	if pos[0] == nil || pos[1] == nil {
		return geo.Coordinate{}, false
	}

	c := geo.Coordinate{Lat: *pos[1], Lon: *pos[0]}
	if !c.Valid() {
		return geo.Coordinate{}, false
	}
	return c, true
}

func (p incidentPropsJSON) toIncident(c geo.Coordinate) hazard.IncidentPoint {
	desc := parseDescription(stringValue(p.Description))

	size := stringValue(p.Size)
	if n, ok := p.Size.(float64); ok && n == 0 {
		size = ""
	}

	fields := incidentFields{
		status:     stringValue(p.Status),
		statusText: stringValue(p.StatusText),
		kind:       firstNonEmpty(stringValue(p.Type), desc["type"]),
		size:       firstNonEmpty(size, desc["size"]),
	}
	if fields.status == "" && fields.statusText == "" {
		fields.status = desc["status"]
	}

	title := stringValue(p.Title)
	if title == "" {
		title = "Unknown"
	}

	return hazard.IncidentPoint{
		Coordinate: c,
		Title:      title,
		Status:     fields.derive(),
		Updated:    firstNonEmpty(stringValue(p.Updated), stringValue(p.PubDate)),
		URL:        stringValue(p.Link),
		Source:     hazard.SourceRFS,
	}
}

// stringValue renders scalar JSON values as text. Objects, arrays and null
// render as empty.
func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%g", t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}
