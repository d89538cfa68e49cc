package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outbackwarning/outbackwarning/internal/feedcache"
	"github.com/outbackwarning/outbackwarning/internal/worker"
)

type fakeRefresher struct {
	mu     sync.Mutex
	calls  map[string]int
	failOn map[string]bool
}

func newFakeRefresher(failOn ...string) *fakeRefresher {
	f := &fakeRefresher{calls: make(map[string]int), failOn: make(map[string]bool)}
	for _, k := range failOn {
		f.failOn[k] = true
	}
	return f
}

func (f *fakeRefresher) RefreshSource(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[key]++
	if f.failOn[key] {
		return errors.New("upstream down")
	}
	return nil
}

func (f *fakeRefresher) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func newJob(r worker.Refresher, cfg worker.RefreshConfig) *worker.RefreshJob {
	return worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:    cfg,
		Logger:    zerolog.Nop(),
		Refresher: r,
		Clock:     clockwork.NewFakeClock(),
	})
}

func TestDefaultRefreshConfig(t *testing.T) {
	cfg := worker.DefaultRefreshConfig()

	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, feedcache.Keys(), cfg.Sources)
	assert.Equal(t, "@every 5m0s", cfg.CronSpec())
}

func TestRefreshConfig_CronSpec(t *testing.T) {
	assert.Equal(t, "*/10 * * * *", worker.RefreshConfig{Schedule: "*/10 * * * *", Interval: time.Minute}.CronSpec())
	assert.Equal(t, "@every 1m0s", worker.RefreshConfig{Interval: time.Minute}.CronSpec())
}

func TestRefreshJob_Run_AllSources(t *testing.T) {
	r := newFakeRefresher()
	job := newJob(r, worker.RefreshConfig{})

	result := job.Run(context.Background())

	assert.Equal(t, len(feedcache.Keys()), result.Sources)
	assert.Equal(t, result.Sources, result.Successful)
	assert.Zero(t, result.Failed)
	for _, k := range feedcache.Keys() {
		assert.Equal(t, 1, r.count(k), k)
	}
}

func TestRefreshJob_Run_RecordsFailures(t *testing.T) {
	r := newFakeRefresher(feedcache.KeyWarnings)
	job := newJob(r, worker.RefreshConfig{Concurrency: 1})

	result := job.Run(context.Background())

	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, feedcache.KeyWarnings, result.Errors[0].Source)

	m := job.GetMetrics()
	assert.EqualValues(t, 1, m.TotalRuns)
	assert.EqualValues(t, 1, m.FailedRefreshes)
	assert.EqualValues(t, 1, m.PerSource[feedcache.KeyIncidents])
	assert.Zero(t, m.PerSource[feedcache.KeyWarnings])
}

func TestRefreshJob_RunSources_Subset(t *testing.T) {
	r := newFakeRefresher()
	job := newJob(r, worker.RefreshConfig{})

	result := job.RunSources(context.Background(), []string{feedcache.KeyRatings})

	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, r.count(feedcache.KeyRatings))
	assert.Zero(t, r.count(feedcache.KeyIncidents))
}

func TestRefreshJob_CancelledContext(t *testing.T) {
	r := newFakeRefresher()
	job := newJob(r, worker.RefreshConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := job.Run(ctx)
	assert.Equal(t, result.Sources, result.Failed)
	assert.Zero(t, r.count(feedcache.KeyIncidents))
}

func TestRefreshJob_MetricsSnapshot(t *testing.T) {
	job := newJob(newFakeRefresher(), worker.RefreshConfig{})
	job.Run(context.Background())

	snap := job.MetricsSnapshot()
	assert.EqualValues(t, 1, snap["total_runs"])
	assert.Contains(t, snap, "per_source")
}

func TestHandleMessage(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		failOn   []string
		wantErr  error
		anyErr   bool
		refreshK string
	}{
		{name: "feed refresh subset", data: `{"job_type":"feed_refresh","sources":["hotspots"]}`, refreshK: feedcache.KeyHotspots},
		{name: "feed refresh all", data: `{"job_type":"feed_refresh"}`, refreshK: feedcache.KeyRatings},
		{name: "health check", data: `{"job_type":"health_check"}`, refreshK: feedcache.KeyIncidents},
		{name: "health check failing", data: `{"job_type":"health_check"}`, failOn: []string{feedcache.KeyIncidents}, anyErr: true},
		{name: "unknown job acked", data: `{"job_type":"reindex"}`},
		{name: "malformed", data: `{`, wantErr: worker.ErrMalformedMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newFakeRefresher(tt.failOn...)
			job := newJob(r, worker.RefreshConfig{})

			err := worker.HandleMessage(context.Background(), job, zerolog.Nop(), []byte(tt.data))

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
			if tt.refreshK != "" {
				assert.Equal(t, 1, r.count(tt.refreshK))
			}
		})
	}
}

func TestNewScheduler_InvalidSchedule(t *testing.T) {
	job := newJob(newFakeRefresher(), worker.RefreshConfig{Schedule: "not a schedule"})

	_, err := worker.NewScheduler(context.Background(), job, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewScheduler_StartStop(t *testing.T) {
	job := newJob(newFakeRefresher(), worker.RefreshConfig{Interval: time.Hour})

	s, err := worker.NewScheduler(context.Background(), job, zerolog.Nop())
	require.NoError(t, err)
	s.Start()
	s.Stop()
}
