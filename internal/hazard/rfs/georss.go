package rfs

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/outbackwarning/outbackwarning/internal/geo"
	"github.com/outbackwarning/outbackwarning/internal/hazard"
	"github.com/outbackwarning/outbackwarning/internal/provider/resilience"
)

// DefaultGeoRSSURL is the GeoRSS variant of the major incidents feed.
const DefaultGeoRSSURL = "https://www.rfs.nsw.gov.au/feeds/majorIncidents.xml"

// GeoRSSClient reads the GeoRSS major incidents feed.
type GeoRSSClient struct {
	url        string
	httpClient resilience.HTTPDoer
	parser     *gofeed.Parser
}

// NewGeoRSSClient creates a GeoRSS incident client.
func NewGeoRSSClient(cfg ClientConfig) *GeoRSSClient {
	url := cfg.URL
	if url == "" {
		url = DefaultGeoRSSURL
	}
	return &GeoRSSClient{
		url:        url,
		httpClient: cfg.httpClient(IncidentsProviderName),
		parser:     gofeed.NewParser(),
	}
}

// Name returns the provider name.
func (c *GeoRSSClient) Name() string {
	return IncidentsProviderName
}

// FetchIncidents downloads and normalizes the GeoRSS feed.
func (c *GeoRSSClient) FetchIncidents(ctx context.Context) ([]hazard.IncidentPoint, error) {
	body, err := resilience.Get(ctx, c.httpClient, c.url, "application/rss+xml")
	if err != nil {
		return nil, fmt.Errorf("%w: rfs georss: %w", hazard.ErrUpstreamUnavailable, err)
	}

	feed, err := c.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse rfs georss: %w", hazard.ErrUpstreamUnavailable, err)
	}
	return incidentsFromFeed(feed), nil
}

func incidentsFromFeed(feed *gofeed.Feed) []hazard.IncidentPoint {
	points := make([]hazard.IncidentPoint, 0, len(feed.Items))
	for _, item := range feed.Items {
		coord, ok := georssPoint(item)
		if !ok {
			continue
		}

		desc := parseDescription(item.Description)
		fields := incidentFields{
			status: desc["status"],
			kind:   desc["type"],
			size:   desc["size"],
		}
		if fields.size == "0 ha" || fields.size == "0" {
			fields.size = ""
		}

		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = "Unknown"
		}

		updated := item.Published
		if item.PublishedParsed != nil {
			updated = item.PublishedParsed.UTC().Format("2006-01-02T15:04:05Z07:00")
		}

		points = append(points, hazard.IncidentPoint{
			Coordinate: coord,
			Title:      title,
			Status:     fields.derive(),
			Updated:    updated,
			URL:        item.Link,
			Source:     hazard.SourceRFS,
		})
	}
	return points
}

// georssPoint reads a "lat lon" georss:point extension.
func georssPoint(item *gofeed.Item) (geo.Coordinate, bool) {
	ns, ok := item.Extensions["georss"]
	if !ok {
		return geo.Coordinate{}, false
	}
	values := ns["point"]
	if len(values) == 0 {
		return geo.Coordinate{}, false
	}

	parts := strings.Fields(values[0].Value)
	if len(parts) != 2 {
		return geo.Coordinate{}, false
	}
	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return geo.Coordinate{}, false
	}
	lon, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return geo.Coordinate{}, false
	}

	c := geo.Coordinate{Lat: lat, Lon: lon}
	if !c.Valid() {
		return geo.Coordinate{}, false
	}
	return c, true
}
