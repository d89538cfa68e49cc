package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler runs a RefreshJob on its cron schedule.
type Scheduler struct {
	job    *RefreshJob
	logger zerolog.Logger
	cron   *cron.Cron

	mu      sync.Mutex
	running bool
}

// NewScheduler parses the job's schedule and prepares a scheduler. The
// schedule accepts five-field expressions and descriptors like "@every 5m".
func NewScheduler(ctx context.Context, job *RefreshJob, logger zerolog.Logger) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	s := &Scheduler{
		job:    job,
		logger: logger,
		cron:   cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger))),
	}

	spec := job.Config().CronSpec()
	if _, err := s.cron.AddFunc(spec, func() { s.tick(ctx) }); err != nil {
		return nil, fmt.Errorf("schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins running scheduled refreshes in the background.
func (s *Scheduler) Start() {
	s.logger.Info().Str("schedule", s.job.Config().CronSpec()).Msg("refresh scheduler started")
	s.cron.Start()
}

// Stop halts the schedule and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("refresh scheduler stopped")
}

// tick skips a run while the previous one is still going.
func (s *Scheduler) tick(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Debug().Msg("previous refresh still running, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.job.Run(ctx)
}
