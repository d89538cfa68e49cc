// Package nominatim geocodes free text with an OpenStreetMap Nominatim
// search endpoint.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/outbackwarning/outbackwarning/internal/geo"
	"github.com/outbackwarning/outbackwarning/internal/geocode"
	"github.com/outbackwarning/outbackwarning/internal/hazard"
	"github.com/outbackwarning/outbackwarning/internal/provider/resilience"
)

const (
	// DefaultBaseURL is the public Nominatim search endpoint.
	DefaultBaseURL = "https://nominatim.openstreetmap.org/search"

	// DefaultRegion is appended to every query.
	DefaultRegion = "NSW, Australia"

	// ProviderName identifies this provider.
	ProviderName = "nominatim"
)

// ClientConfig holds configuration for the Nominatim client.
type ClientConfig struct {
	// BaseURL is the search endpoint (defaults to DefaultBaseURL).
	BaseURL string

	// Region qualifies every query (defaults to DefaultRegion).
	Region string

	// HTTPClient executes requests. If nil, a resilient client is created.
	HTTPClient resilience.HTTPDoer

	// Timeout for the default client (default: 10s).
	Timeout time.Duration

	// Registry receives the default client's health, if set.
	Registry *resilience.Registry
}

// Client is a Nominatim geocoder.
type Client struct {
	baseURL    string
	region     string
	httpClient resilience.HTTPDoer
}

var _ geocode.Geocoder = (*Client)(nil)

// NewClient creates a Nominatim client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		rc := resilience.DefaultClientConfig(ProviderName)
		rc.MaxRetries = 1
		if cfg.Timeout > 0 {
			rc.Timeout = cfg.Timeout
		}
		rc.Registry = cfg.Registry
		httpClient = resilience.NewClient(rc)
	}

	return &Client{baseURL: baseURL, region: region, httpClient: httpClient}
}

type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode resolves query within the configured region and returns the first match.
func (c *Client) Geocode(ctx context.Context, query string) (geocode.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return geocode.Result{}, fmt.Errorf("%w: empty query", hazard.ErrNotFound)
	}

	params := url.Values{}
	params.Set("q", query+", "+c.region)
	params.Set("format", "json")
	params.Set("limit", "1")

	body, err := resilience.Get(ctx, c.httpClient, c.baseURL+"?"+params.Encode(), "application/json")
	if err != nil {
		return geocode.Result{}, fmt.Errorf("%w: %w", hazard.ErrNotFound, err)
	}

	var places []place
	if err := json.Unmarshal(body, &places); err != nil {
		return geocode.Result{}, fmt.Errorf("%w: decode response: %w", hazard.ErrNotFound, err)
	}
	if len(places) == 0 {
		return geocode.Result{}, fmt.Errorf("%w: no results for %q", hazard.ErrNotFound, query)
	}

	first := places[0]
	lat, err := strconv.ParseFloat(first.Lat, 64)
	if err != nil {
		return geocode.Result{}, fmt.Errorf("%w: parse lat: %w", hazard.ErrNotFound, err)
	}
	lon, err := strconv.ParseFloat(first.Lon, 64)
	if err != nil {
		return geocode.Result{}, fmt.Errorf("%w: parse lon: %w", hazard.ErrNotFound, err)
	}

	coord := geo.Coordinate{Lat: lat, Lon: lon}
	if !coord.Valid() {
		return geocode.Result{}, fmt.Errorf("%w: %w", hazard.ErrNotFound, hazard.ErrInvalidCoordinate)
	}
	return geocode.Result{Coordinate: coord, DisplayName: first.DisplayName}, nil
}
