package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/outbackwarning/outbackwarning/internal/featureflags"
	"github.com/outbackwarning/outbackwarning/internal/feedcache"
	"github.com/outbackwarning/outbackwarning/internal/geo"
	"github.com/outbackwarning/outbackwarning/internal/hazard"
	"github.com/outbackwarning/outbackwarning/internal/risk"
)

type fakeFeeds struct {
	snap       feedcache.Snapshot
	statuses   []feedcache.Status
	cachedOnly []bool
}

func (f *fakeFeeds) Current(_ context.Context, cachedOnly bool) feedcache.Snapshot {
	f.cachedOnly = append(f.cachedOnly, cachedOnly)
	return f.snap
}

func (f *fakeFeeds) Statuses() []feedcache.Status {
	return f.statuses
}

type fakeScorer struct {
	assessment risk.Assessment

	query    string
	district string
	opts     risk.Options
	calls    int
}

func (f *fakeScorer) Assess(_ context.Context, query, districtName string, opts risk.Options) risk.Assessment {
	f.calls++
	f.query, f.district, f.opts = query, districtName, opts
	return f.assessment
}

// newFlags returns a flag service with the given toggles switched on.
func newFlags(t *testing.T, enabled ...string) *featureflags.Service {
	t.Helper()
	flags := make(map[string]*featureflags.Flag, len(enabled))
	for _, key := range enabled {
		flags[key] = &featureflags.Flag{Key: key, Value: true}
	}
	return featureflags.NewService(featureflags.ServiceConfig{
		Repository: featureflags.NewInMemoryRepositoryWithFlags(flags),
		Logger:     zerolog.Nop(),
	})
}

func sampleSnapshot() feedcache.Snapshot {
	return feedcache.Snapshot{
		Incidents: []hazard.IncidentPoint{
			{
				Coordinate: geo.Coordinate{Lat: -33.60, Lon: 150.30},
				Title:      "Gospers Mountain",
				Status:     "Out of control",
				Updated:    "2025-01-10T04:30:00Z",
				URL:        "https://www.rfs.nsw.gov.au/1",
				Source:     hazard.SourceRFS,
			},
			{
				Coordinate: geo.Coordinate{Lat: -32.10, Lon: 151.90},
				Title:      "Hazard reduction burn",
				Status:     "",
				Updated:    "2025-01-09T01:00:00Z",
				Source:     hazard.SourceRFS,
			},
			{
				Coordinate: geo.Coordinate{Lat: 200, Lon: 151},
				Title:      "Bad coordinate",
			},
		},
		Warnings: hazard.Warnings{
			Polygons: []hazard.WarningPolygon{
				{
					Description: "Severe Thunderstorm Warning",
					Source:      hazard.SourceBOM,
					Rings: [][]geo.Coordinate{{
						{Lat: -33.0, Lon: 150.0}, {Lat: -33.0, Lon: 151.0},
						{Lat: -34.0, Lon: 151.0}, {Lat: -33.0, Lon: 150.0},
					}},
				},
				{
					Description: "Degenerate",
					Rings:       [][]geo.Coordinate{{{Lat: -33, Lon: 150}, {Lat: -33, Lon: 151}}},
				},
			},
			Items: []hazard.FeedItem{
				{Time: "2025-01-10T06:00:00Z", Title: "Flood Watch", Summary: "Bureau of Meteorology", Source: hazard.SourceBOM},
			},
		},
		Hotspots: []hazard.HotspotPoint{{Coordinate: geo.Coordinate{Lat: -33.5, Lon: 150.5}, Weight: 12.5}},
		Ratings:  hazard.DistrictRatings{"Greater Sydney": hazard.RatingHigh},
	}
}

func serve(t *testing.T, h http.HandlerFunc, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(method, target, http.NoBody))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}
