// Package afdrs provides district fire danger ratings from an operator
// supplied CSV/JSON endpoint, and a chain that falls back across sources.
package afdrs

import (
	"context"
	"fmt"
	"time"

	"github.com/outbackwarning/outbackwarning/internal/hazard"
	"github.com/outbackwarning/outbackwarning/internal/hazard/tabular"
	"github.com/outbackwarning/outbackwarning/internal/provider/resilience"
)

// CustomProviderName identifies the operator-supplied ratings upstream.
const CustomProviderName = "afdrs-custom"

// CustomConfig holds configuration for the custom ratings client.
type CustomConfig struct {
	// URL of the CSV or JSON document. Empty disables the source.
	URL string

	// HTTPClient executes requests. If nil, a resilient client is created.
	HTTPClient resilience.HTTPDoer

	// Timeout for the default client (default: 10s).
	Timeout time.Duration

	// Registry receives the default client's health, if set.
	Registry *resilience.Registry
}

// CustomClient reads ratings from an operator endpoint. Accepted shapes:
// {"data":[{"district","rating"}]}, a bare JSON list, or CSV with a header.
// "name" and "level" are accepted in place of "district" and "rating".
type CustomClient struct {
	url        string
	httpClient resilience.HTTPDoer
}

// NewCustomClient creates a custom ratings client.
func NewCustomClient(cfg CustomConfig) *CustomClient {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		rc := resilience.DefaultClientConfig(CustomProviderName)
		if cfg.Timeout > 0 {
			rc.Timeout = cfg.Timeout
		}
		rc.Registry = cfg.Registry
		httpClient = resilience.NewClient(rc)
	}
	return &CustomClient{url: cfg.URL, httpClient: httpClient}
}

// Name returns the provider name.
func (c *CustomClient) Name() string {
	return CustomProviderName
}

// Configured reports whether a URL is set.
func (c *CustomClient) Configured() bool {
	return c.url != ""
}

// FetchRatings downloads and normalizes the custom document. An unconfigured
// client returns an empty mapping.
func (c *CustomClient) FetchRatings(ctx context.Context) (hazard.DistrictRatings, error) {
	if c.url == "" {
		return hazard.DistrictRatings{}, nil
	}

	body, err := resilience.Get(ctx, c.httpClient, c.url, "application/json, text/csv")
	if err != nil {
		return nil, fmt.Errorf("%w: afdrs custom: %w", hazard.ErrUpstreamUnavailable, err)
	}
	return ParseRatings(body)
}

// ParseRatings normalizes rating rows. Rows without a district name are skipped.
func ParseRatings(body []byte) (hazard.DistrictRatings, error) {
	rows, err := tabular.Parse(body, "")
	if err != nil {
		return nil, fmt.Errorf("%w: afdrs custom: %w", hazard.ErrUpstreamUnavailable, err)
	}

	out := make(hazard.DistrictRatings, len(rows))
	for _, row := range rows {
		name := row.First("district", "name")
		if name == "" {
			continue
		}
		out[name] = hazard.NormalizeLevel(row.First("rating", "level"))
	}
	return out, nil
}
