package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outbackwarning/outbackwarning/internal/api/handler"
	"github.com/outbackwarning/outbackwarning/internal/api/models"
	"github.com/outbackwarning/outbackwarning/internal/featureflags"
	"github.com/outbackwarning/outbackwarning/internal/feedcache"
	"github.com/outbackwarning/outbackwarning/internal/provider/resilience"
)

type fakeProviders []*resilience.ProviderHealth

func (f fakeProviders) GetAllHealth() []*resilience.ProviderHealth { return f }

func populated(key string) feedcache.Status {
	now := time.Now()
	expires := now.Add(time.Minute)
	return feedcache.Status{Key: key, Name: key, State: feedcache.StatePopulated, Records: 3, FetchedAt: &now, ExpiresAt: &expires}
}

func TestOpsHandler_HealthCheck(t *testing.T) {
	h := handler.NewOpsHandler(handler.OpsHandlerConfig{Version: "1.2.3", BuildTime: "2025-01-01T00:00:00Z"})

	rec := serve(t, h.HealthCheck, http.MethodGet, "/v1/ops/health")
	require.Equal(t, http.StatusOK, rec.Code)

	health := decode[models.Health](t, rec)
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "1.2.3", health.Details["version"])
}

func TestOpsHandler_ReadinessCheck(t *testing.T) {
	feeds := &fakeFeeds{statuses: []feedcache.Status{{Key: feedcache.KeyIncidents, State: feedcache.StateEmpty}}}
	h := handler.NewOpsHandler(handler.OpsHandlerConfig{Feeds: feeds})

	rec := serve(t, h.ReadinessCheck, http.MethodGet, "/v1/ops/ready")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.HealthStatusDegraded, decode[models.Health](t, rec).Status)

	feeds.statuses = []feedcache.Status{populated(feedcache.KeyIncidents)}
	rec = serve(t, h.ReadinessCheck, http.MethodGet, "/v1/ops/ready")
	assert.Equal(t, models.HealthStatusOK, decode[models.Health](t, rec).Status)
}

func TestOpsHandler_SystemStatus(t *testing.T) {
	failedAt := time.Now()
	tests := []struct {
		name      string
		feeds     []feedcache.Status
		providers fakeProviders
		flags     []string
		want      models.HealthStatus
	}{
		{
			name:  "all fresh",
			feeds: []feedcache.Status{populated(feedcache.KeyIncidents), populated(feedcache.KeyWarnings)},
			want:  models.HealthStatusOK,
		},
		{
			name: "one stale",
			feeds: []feedcache.Status{
				populated(feedcache.KeyIncidents),
				{Key: feedcache.KeyWarnings, State: feedcache.StateStale},
			},
			want: models.HealthStatusDegraded,
		},
		{
			name: "one failed",
			feeds: []feedcache.Status{
				populated(feedcache.KeyIncidents),
				{Key: feedcache.KeyWarnings, State: feedcache.StateEmpty, LastError: "boom"},
			},
			want: models.HealthStatusDegraded,
		},
		{
			name: "all failed",
			feeds: []feedcache.Status{
				{Key: feedcache.KeyIncidents, State: feedcache.StateEmpty, LastError: "boom"},
				{Key: feedcache.KeyWarnings, State: feedcache.StateEmpty, LastError: "boom"},
			},
			want: models.HealthStatusFail,
		},
		{
			name:  "open breaker",
			feeds: []feedcache.Status{populated(feedcache.KeyIncidents)},
			providers: fakeProviders{
				{Name: "nominatim", CircuitState: gobreaker.StateOpen, LastFailureAt: &failedAt, LastError: "timeout"},
			},
			want: models.HealthStatusDegraded,
		},
		{
			name:  "flags listed",
			feeds: []feedcache.Status{populated(feedcache.KeyIncidents)},
			flags: []string{featureflags.FlagCachedOnlyFeeds},
			want:  models.HealthStatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewOpsHandler(handler.OpsHandlerConfig{
				Feeds:     &fakeFeeds{statuses: tt.feeds},
				Providers: tt.providers,
				Flags:     newFlags(t, tt.flags...),
			})

			rec := serve(t, h.SystemStatus, http.MethodGet, "/v1/ops/status")
			require.Equal(t, http.StatusOK, rec.Code)

			status := decode[models.SystemStatus](t, rec)
			assert.Equal(t, tt.want, status.Status)
			assert.Len(t, status.Feeds, len(tt.feeds))
			assert.Len(t, status.Providers, len(tt.providers))
			assert.Equal(t, tt.flags, status.ActiveDegradationFlags)
		})
	}
}

func TestOpsHandler_SystemStatus_ProviderDetail(t *testing.T) {
	failedAt := time.Now()
	h := handler.NewOpsHandler(handler.OpsHandlerConfig{
		Providers: fakeProviders{
			{Name: "rfs-incidents", CircuitState: gobreaker.StateClosed},
			{Name: "nominatim", CircuitState: gobreaker.StateOpen, LastFailureAt: &failedAt, LastError: "timeout"},
		},
	})

	rec := serve(t, h.SystemStatus, http.MethodGet, "/v1/ops/status")
	status := decode[models.SystemStatus](t, rec)

	require.Len(t, status.Providers, 2)
	assert.Equal(t, "nominatim", status.Providers[0].Provider)
	assert.Equal(t, models.HealthStatusFail, status.Providers[0].Status)
	assert.Equal(t, "open", status.Providers[0].CircuitState)
	require.NotNil(t, status.Providers[0].Message)
	assert.Equal(t, "timeout", *status.Providers[0].Message)
	assert.NotNil(t, status.Providers[0].LastFailureAt)
	assert.Equal(t, models.HealthStatusOK, status.Providers[1].Status)
}
