package worker

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Refresher refreshes one feed by key.
type Refresher interface {
	RefreshSource(ctx context.Context, key string) error
}

// RefreshJob refreshes the configured feeds with bounded concurrency.
type RefreshJob struct {
	config    RefreshConfig
	logger    zerolog.Logger
	refresher Refresher
	clock     clockwork.Clock

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	TotalRuns         int64
	SuccessfulRefresh int64
	FailedRefreshes   int64
	PerSource         map[string]int64

	LastRefreshAt       time.Time
	LastRefreshDuration time.Duration
	TotalDuration       time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config    RefreshConfig
	Logger    zerolog.Logger
	Refresher Refresher
	Clock     clockwork.Clock
}

// NewRefreshJob creates a new refresh job.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RefreshJob{
		config:    cfg.Config.withDefaults(),
		logger:    cfg.Logger,
		refresher: cfg.Refresher,
		clock:     clock,
		metrics:   &RefreshMetrics{PerSource: make(map[string]int64)},
	}
}

// Config returns the effective configuration.
func (j *RefreshJob) Config() RefreshConfig {
	return j.config
}

// RefreshResult contains the result of a refresh run.
type RefreshResult struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Sources    int
	Successful int
	Failed     int
	Errors     []RefreshError
}

// RefreshError records one failed feed refresh.
type RefreshError struct {
	Source string
	Error  string
}

// Run refreshes every configured feed.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	return j.RunSources(ctx, j.config.Sources)
}

// RunSources refreshes the given feeds. An empty list refreshes every
// configured feed.
func (j *RefreshJob) RunSources(ctx context.Context, sources []string) *RefreshResult {
	if len(sources) == 0 {
		sources = j.config.Sources
	}

	start := j.clock.Now()
	result := &RefreshResult{StartTime: start, Sources: len(sources)}

	j.logger.Info().
		Strs("sources", sources).
		Int("concurrency", j.config.Concurrency).
		Msg("starting feed refresh")

	work := make(chan string, len(sources))
	results := make(chan sourceResult, len(sources))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.refreshWorker(ctx, work, results)
		}()
	}

	for _, s := range sources {
		work <- s
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	for sr := range results {
		if sr.err != nil {
			result.Failed++
			result.Errors = append(result.Errors, RefreshError{Source: sr.source, Error: sr.err.Error()})
			continue
		}
		result.Successful++
		j.countSource(sr.source)
	}

	result.EndTime = j.clock.Now()
	result.Duration = result.EndTime.Sub(start)
	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("feed refresh completed")

	return result
}

type sourceResult struct {
	source string
	err    error
}

func (j *RefreshJob) refreshWorker(ctx context.Context, sources <-chan string, results chan<- sourceResult) {
	for source := range sources {
		if err := ctx.Err(); err != nil {
			results <- sourceResult{source: source, err: err}
			continue
		}
		results <- sourceResult{source: source, err: j.refreshSource(ctx, source)}
	}
}

func (j *RefreshJob) refreshSource(ctx context.Context, source string) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	if err := j.refresher.RefreshSource(ctx, source); err != nil {
		j.logger.Warn().Err(err).Str("source", source).Msg("feed refresh failed")
		return err
	}
	return nil
}

func (j *RefreshJob) countSource(source string) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()
	j.metrics.PerSource[source]++
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SuccessfulRefresh += int64(result.Successful)
	j.metrics.FailedRefreshes += int64(result.Failed)
	j.metrics.LastRefreshAt = result.EndTime
	j.metrics.LastRefreshDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	perSource := make(map[string]int64, len(j.metrics.PerSource))
	for k, v := range j.metrics.PerSource {
		perSource[k] = v
	}

	return RefreshMetrics{
		TotalRuns:           j.metrics.TotalRuns,
		SuccessfulRefresh:   j.metrics.SuccessfulRefresh,
		FailedRefreshes:     j.metrics.FailedRefreshes,
		PerSource:           perSource,
		LastRefreshAt:       j.metrics.LastRefreshAt,
		LastRefreshDuration: j.metrics.LastRefreshDuration,
		TotalDuration:       j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns the current metrics as a map for health output.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":            m.TotalRuns,
		"successful_refreshes":  m.SuccessfulRefresh,
		"failed_refreshes":      m.FailedRefreshes,
		"per_source":            m.PerSource,
		"last_refresh_at":       m.LastRefreshAt,
		"last_refresh_duration": m.LastRefreshDuration.String(),
		"total_duration":        m.TotalDuration.String(),
	}
}
