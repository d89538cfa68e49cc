// Package worker keeps the feed caches warm in the background.
package worker

import (
	"time"

	"github.com/outbackwarning/outbackwarning/internal/feedcache"
)

// RefreshConfig holds configuration for the feed refresh job.
type RefreshConfig struct {
	// Sources are the feed keys to refresh. If empty, every feed is refreshed.
	Sources []string

	// Concurrency is the number of feeds refreshed at once.
	// Default: 2
	Concurrency int

	// Timeout bounds each feed refresh.
	// Default: 30 seconds
	Timeout time.Duration

	// Interval between scheduled runs when Schedule is empty.
	// Default: 5 minutes
	Interval time.Duration

	// Schedule is a five-field cron expression or descriptor ("@hourly").
	// It takes precedence over Interval.
	Schedule string
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Sources:     feedcache.Keys(),
		Concurrency: 2,
		Timeout:     30 * time.Second,
		Interval:    5 * time.Minute,
	}
}

func (c RefreshConfig) withDefaults() RefreshConfig {
	def := DefaultRefreshConfig()
	if len(c.Sources) == 0 {
		c.Sources = def.Sources
	}
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.Interval <= 0 {
		c.Interval = def.Interval
	}
	return c
}

// CronSpec returns the schedule expression the scheduler runs on.
func (c RefreshConfig) CronSpec() string {
	if c.Schedule != "" {
		return c.Schedule
	}
	c = c.withDefaults()
	return "@every " + c.Interval.String()
}
