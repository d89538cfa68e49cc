package rfs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/outbackwarning/outbackwarning/internal/hazard"
	"github.com/outbackwarning/outbackwarning/internal/provider/resilience"
)

const (
	// DefaultRatingsURL is the fire danger rating and total fire ban feed.
	DefaultRatingsURL = "https://www.rfs.nsw.gov.au/feeds/fdrToban.json"

	// RatingsProviderName identifies the ratings upstream.
	RatingsProviderName = "rfs-ratings"
)

// RatingsClient reads today's ratings from the RFS feed.
type RatingsClient struct {
	url        string
	httpClient resilience.HTTPDoer
}

// NewRatingsClient creates a ratings client.
func NewRatingsClient(cfg ClientConfig) *RatingsClient {
	url := cfg.URL
	if url == "" {
		url = DefaultRatingsURL
	}
	return &RatingsClient{
		url:        url,
		httpClient: cfg.httpClient(RatingsProviderName),
	}
}

// Name returns the provider name.
func (c *RatingsClient) Name() string {
	return RatingsProviderName
}

type ratingsResponse struct {
	Districts []struct {
		Name   string `json:"name"`
		Rating string `json:"todays_fire_danger_rating"`
	} `json:"districts"`
}

// FetchRatings downloads today's ratings. Districts without a name or
// rating are skipped.
func (c *RatingsClient) FetchRatings(ctx context.Context) (hazard.DistrictRatings, error) {
	body, err := resilience.Get(ctx, c.httpClient, c.url, "application/json")
	if err != nil {
		return nil, fmt.Errorf("%w: rfs ratings: %w", hazard.ErrUpstreamUnavailable, err)
	}

	var resp ratingsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode rfs ratings: %w", hazard.ErrUpstreamUnavailable, err)
	}

	out := make(hazard.DistrictRatings, len(resp.Districts))
	for _, d := range resp.Districts {
		name := strings.TrimSpace(d.Name)
		raw := strings.TrimSpace(d.Rating)
		if name == "" || raw == "" {
			continue
		}
		out[name] = hazard.NormalizeLevel(raw)
	}
	return out, nil
}
