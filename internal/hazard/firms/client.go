// Package firms adapts satellite hotspot exports: FIRMS area CSV files or a
// JSON list of {lat, lon, weight} records.
package firms

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/outbackwarning/outbackwarning/internal/geo"
	"github.com/outbackwarning/outbackwarning/internal/hazard"
	"github.com/outbackwarning/outbackwarning/internal/hazard/tabular"
	"github.com/outbackwarning/outbackwarning/internal/provider/resilience"
)

// ProviderName identifies this provider.
const ProviderName = "firms-hotspots"

// ClientConfig holds configuration for the hotspot client.
type ClientConfig struct {
	// URL of the export. Required; FIRMS area URLs embed an API key.
	URL string

	// HTTPClient executes requests. If nil, a resilient client is created.
	HTTPClient resilience.HTTPDoer

	// Timeout for the default client (default: 10s).
	Timeout time.Duration

	// Registry receives the default client's health, if set.
	Registry *resilience.Registry
}

// Client fetches hotspot exports.
type Client struct {
	url        string
	httpClient resilience.HTTPDoer
}

// NewClient creates a hotspot client.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		rc := resilience.DefaultClientConfig(ProviderName)
		if cfg.Timeout > 0 {
			rc.Timeout = cfg.Timeout
		}
		rc.Registry = cfg.Registry
		httpClient = resilience.NewClient(rc)
	}
	return &Client{url: cfg.URL, httpClient: httpClient}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchHotspots downloads the export. An unconfigured client returns no hotspots.
func (c *Client) FetchHotspots(ctx context.Context) ([]hazard.HotspotPoint, error) {
	if c.url == "" {
		return []hazard.HotspotPoint{}, nil
	}

	body, err := resilience.Get(ctx, c.httpClient, c.url, "")
	if err != nil {
		return nil, fmt.Errorf("%w: firms: %w", hazard.ErrUpstreamUnavailable, err)
	}
	return Parse(body)
}

// Parse normalizes hotspot rows. Rows without a valid position are skipped;
// a missing or unparseable weight defaults to 1.
func Parse(body []byte) ([]hazard.HotspotPoint, error) {
	rows, err := tabular.Parse(body, "")
	if err != nil {
		return nil, fmt.Errorf("%w: firms: %w", hazard.ErrUpstreamUnavailable, err)
	}

	points := make([]hazard.HotspotPoint, 0, len(rows))
	for _, row := range rows {
		lat, err := strconv.ParseFloat(row.First("lat", "latitude"), 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(row.First("lon", "lng", "longitude"), 64)
		if err != nil {
			continue
		}
		c := geo.Coordinate{Lat: lat, Lon: lon}
		if !c.Valid() {
			continue
		}

		weight, err := strconv.ParseFloat(row.First("weight", "frp", "intensity"), 64)
		if err != nil {
			weight = 1
		}
		points = append(points, hazard.HotspotPoint{Coordinate: c, Weight: weight})
	}
	return points, nil
}
