package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outbackwarning/outbackwarning/internal/feedcache"
	"github.com/outbackwarning/outbackwarning/internal/geo"
	"github.com/outbackwarning/outbackwarning/internal/hazard"
	"github.com/outbackwarning/outbackwarning/internal/provider/resilience"
	"github.com/outbackwarning/outbackwarning/internal/worker"
)

type stubFeeds struct{}

func (stubFeeds) Name() string { return "stub" }

func (stubFeeds) FetchIncidents(context.Context) ([]hazard.IncidentPoint, error) {
	return []hazard.IncidentPoint{{Coordinate: geo.Coordinate{Lat: -33.9, Lon: 151.2}, Title: "Fire"}}, nil
}

func (stubFeeds) FetchWarnings(context.Context) (*hazard.Warnings, error) {
	return &hazard.Warnings{}, nil
}

func (stubFeeds) FetchRatings(context.Context) (hazard.DistrictRatings, error) {
	return hazard.DistrictRatings{"Riverina": hazard.RatingHigh}, nil
}

func TestHealthRouter(t *testing.T) {
	feeds, err := feedcache.NewService(feedcache.ServiceConfig{
		Incidents: stubFeeds{},
		Warnings:  stubFeeds{},
		Ratings:   stubFeeds{},
		Clock:     clockwork.NewFakeClock(),
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Logger:    zerolog.Nop(),
		Refresher: feeds,
		Clock:     clockwork.NewFakeClock(),
	})
	result := job.Run(context.Background())
	require.Empty(t, result.Errors)

	registry := resilience.NewRegistry()
	registry.Register("rfs-incidents", resilience.NewClient(resilience.DefaultClientConfig("rfs-incidents")))

	rec := httptest.NewRecorder()
	healthRouter(job, feeds, registry).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status    string             `json:"status"`
		Version   string             `json:"version"`
		Feeds     []feedcache.Status `json:"feeds"`
		Providers map[string]string  `json:"providers"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, Version, body.Version)
	assert.Len(t, body.Feeds, len(feedcache.Keys()))
	for _, st := range body.Feeds {
		assert.Equal(t, feedcache.StatePopulated, st.State, st.Key)
	}
	assert.Equal(t, map[string]string{"rfs-incidents": resilience.HealthOK}, body.Providers)
}
