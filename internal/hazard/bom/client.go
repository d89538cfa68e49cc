// Package bom adapts Bureau of Meteorology CAP warning documents into
// warning polygons and feed items.
package bom

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"

	"github.com/outbackwarning/outbackwarning/internal/geo"
	"github.com/outbackwarning/outbackwarning/internal/hazard"
	"github.com/outbackwarning/outbackwarning/internal/provider/resilience"
)

const (
	// DefaultURL is the NSW CAP warnings document.
	DefaultURL = "http://www.bom.gov.au/fwo/IDZ00059.warnings_nsw.xml"

	// ProviderName identifies this provider.
	ProviderName = "bom-warnings"

	// WarningsPageURL is linked from every feed item.
	WarningsPageURL = "http://www.bom.gov.au/nsw/warnings/"

	defaultAreaDesc = "BOM Area"
	defaultHeadline = "BOM Warning"
	issuedBy        = "Issued by Bureau of Meteorology"
)

// ClientConfig holds configuration for the BOM client.
type ClientConfig struct {
	// URL overrides DefaultURL.
	URL string

	// HTTPClient executes requests. If nil, a resilient client is created.
	HTTPClient resilience.HTTPDoer

	// Timeout for the default client (default: 10s).
	Timeout time.Duration

	// Registry receives the default client's health, if set.
	Registry *resilience.Registry
}

// Client fetches CAP warnings.
type Client struct {
	url        string
	httpClient resilience.HTTPDoer
}

// NewClient creates a BOM client.
func NewClient(cfg ClientConfig) *Client {
	url := cfg.URL
	if url == "" {
		url = DefaultURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		rc := resilience.DefaultClientConfig(ProviderName)
		if cfg.Timeout > 0 {
			rc.Timeout = cfg.Timeout
		}
		rc.Registry = cfg.Registry
		httpClient = resilience.NewClient(rc)
	}

	return &Client{url: url, httpClient: httpClient}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchWarnings downloads and parses the CAP document.
func (c *Client) FetchWarnings(ctx context.Context) (*hazard.Warnings, error) {
	body, err := resilience.Get(ctx, c.httpClient, c.url, "application/xml")
	if err != nil {
		return nil, fmt.Errorf("%w: bom warnings: %w", hazard.ErrUpstreamUnavailable, err)
	}
	return Parse(body)
}

// Parse reads every info block in a CAP document, wherever it is nested.
// Element names are matched by local name so CAP 1.1 and 1.2 documents both parse.
func Parse(body []byte) (*hazard.Warnings, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: decode cap: %w", hazard.ErrUpstreamUnavailable, err)
	}
	if xmlquery.FindOne(doc, "/*") == nil {
		return nil, fmt.Errorf("%w: empty cap document", hazard.ErrUpstreamUnavailable)
	}

	out := &hazard.Warnings{
		Polygons: []hazard.WarningPolygon{},
		Items:    []hazard.FeedItem{},
	}
	for _, info := range xmlquery.Find(doc, "//*[local-name()='info']") {
		out.Items = append(out.Items, feedItem(info))
		out.Polygons = append(out.Polygons, polygons(info)...)
	}
	return out, nil
}

func childText(n *xmlquery.Node, name string) (string, bool) {
	child := xmlquery.FindOne(n, "*[local-name()='"+name+"']")
	if child == nil {
		return "", false
	}
	return strings.TrimSpace(child.InnerText()), true
}

func feedItem(info *xmlquery.Node) hazard.FeedItem {
	headline, _ := childText(info, "headline")
	if headline == "" {
		headline = defaultHeadline
	}
	effective, _ := childText(info, "effective")
	return hazard.FeedItem{
		Time:    effective,
		Title:   headline,
		Summary: issuedBy,
		URL:     WarningsPageURL,
		Source:  hazard.SourceBOM,
	}
}

func polygons(info *xmlquery.Node) []hazard.WarningPolygon {
	var out []hazard.WarningPolygon
	for _, area := range xmlquery.Find(info, "*[local-name()='area']") {
		var rings [][]geo.Coordinate
		for _, p := range xmlquery.Find(area, "*[local-name()='polygon']") {
			if ring := ParseRing(p.InnerText()); len(ring) > 0 {
				rings = append(rings, ring)
			}
		}
		if len(rings) == 0 {
			continue
		}

		desc, ok := childText(area, "areaDesc")
		if !ok {
			desc = defaultAreaDesc
		}
		out = append(out, hazard.WarningPolygon{
			Rings:       rings,
			Description: desc,
			Source:      hazard.SourceBOM,
		})
	}
	return out
}

// ParseRing parses whitespace separated "lat,lon" pairs. Malformed and
// out-of-range pairs are skipped.
func ParseRing(text string) []geo.Coordinate {
	var ring []geo.Coordinate
	for _, pair := range strings.Fields(text) {
		latText, lonText, ok := strings.Cut(pair, ",")
		if !ok || strings.Contains(lonText, ",") {
			continue
		}
		lat, err := strconv.ParseFloat(latText, 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(lonText, 64)
		if err != nil {
			continue
		}
		c := geo.Coordinate{Lat: lat, Lon: lon}
		if !c.Valid() {
			continue
		}
		ring = append(ring, c)
	}
	return ring
}
