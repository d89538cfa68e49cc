// Package feedcache holds the most recent snapshot of each upstream hazard
// feed and refreshes it when its TTL lapses. A failed refresh keeps serving
// the previous snapshot.
package feedcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// State is the lifecycle state of a cached source.
type State string

const (
	StateEmpty     State = "empty"
	StatePopulated State = "populated"
	StateStale     State = "stale"
)

// FetchFunc loads a fresh value from upstream.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// SourceConfig configures a Source.
type SourceConfig[T any] struct {
	// Key is a short stable identifier used for persistence and metrics.
	Key string

	// Name is the human-readable label shown in freshness badges.
	Name string

	// TTL is how long a snapshot is served before a read refreshes it.
	TTL time.Duration

	// FailureBackoff suppresses refresh attempts for this long after a
	// failure; the stale snapshot is served meanwhile. Zero retries on every read.
	FailureBackoff time.Duration

	Fetch FetchFunc[T]

	// Empty is returned while the source has never been populated.
	Empty T

	// Count reports the number of records in a value, for status output.
	Count func(T) int

	// Store persists the last good snapshot (optional).
	Store SnapshotStore

	Clock   clockwork.Clock
	Logger  zerolog.Logger
	Metrics *Metrics
}

// Source is a single TTL-bounded cache slot. Readers always receive a whole
// snapshot; refreshes are deduplicated across concurrent callers.
type Source[T any] struct {
	key            string
	name           string
	ttl            time.Duration
	failureBackoff time.Duration
	fetch          FetchFunc[T]
	count          func(T) int
	store          SnapshotStore
	clock          clockwork.Clock
	logger         zerolog.Logger
	metrics        *Metrics

	group singleflight.Group

	mu            sync.RWMutex
	value         T
	populated     bool
	fetchedAt     time.Time
	invalidated   bool
	lastAttemptAt time.Time
	lastError     error
	failures      int
}

// NewSource creates an empty source.
func NewSource[T any](cfg SourceConfig[T]) *Source[T] {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Minute
	}
	if cfg.Name == "" {
		cfg.Name = cfg.Key
	}

	return &Source[T]{
		key:            cfg.Key,
		name:           cfg.Name,
		ttl:            cfg.TTL,
		failureBackoff: cfg.FailureBackoff,
		fetch:          cfg.Fetch,
		count:          cfg.Count,
		store:          cfg.Store,
		clock:          cfg.Clock,
		logger:         cfg.Logger.With().Str("source", cfg.Key).Logger(),
		metrics:        cfg.Metrics,
		value:          cfg.Empty,
	}
}

// Key returns the source key.
func (s *Source[T]) Key() string { return s.key }

// Name returns the display name.
func (s *Source[T]) Name() string { return s.name }

// Get returns the current snapshot, refreshing first when the source is
// empty or stale. Refresh failures are logged, never returned.
func (s *Source[T]) Get(ctx context.Context) T {
	s.mu.RLock()
	fresh := s.isFresh()
	backingOff := s.failureBackoff > 0 && s.lastError != nil && s.clock.Since(s.lastAttemptAt) < s.failureBackoff
	value := s.value
	s.mu.RUnlock()

	if fresh || backingOff {
		return value
	}

	_ = s.refresh(ctx, false)
	return s.Peek()
}

// Peek returns the current snapshot without refreshing.
func (s *Source[T]) Peek() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Refresh fetches unconditionally and returns the fetch error, if any.
// The previous snapshot is kept on failure.
func (s *Source[T]) Refresh(ctx context.Context) error {
	return s.refresh(ctx, true)
}

func (s *Source[T]) refresh(ctx context.Context, force bool) error {
	// Shared fetches outlive any single caller's cancellation.
	fetchCtx := context.WithoutCancel(ctx)

	_, err, _ := s.group.Do(s.key, func() (interface{}, error) {
		if !force {
			s.mu.RLock()
			fresh := s.isFresh()
			s.mu.RUnlock()
			if fresh {
				return nil, nil
			}
		}
		return nil, s.doFetch(fetchCtx)
	})
	return err
}

func (s *Source[T]) doFetch(ctx context.Context) error {
	if s.fetch == nil {
		return fmt.Errorf("feedcache %s: no fetch function", s.key)
	}

	start := s.clock.Now()
	value, err := s.fetch(ctx)
	now := s.clock.Now()

	s.mu.Lock()
	s.lastAttemptAt = now
	if err != nil {
		s.lastError = err
		s.failures++
		hasData := s.populated
		failures := s.failures
		s.mu.Unlock()

		s.metrics.recordRefresh(ctx, s.key, outcomeFailure, now.Sub(start))
		event := s.logger.Warn().Err(err).Int("consecutive_failures", failures)
		if hasData {
			event.Msg("feed refresh failed, serving stale snapshot")
		} else {
			event.Msg("feed refresh failed, no snapshot available")
		}
		return err
	}

	s.value = value
	s.populated = true
	s.fetchedAt = now
	s.invalidated = false
	s.lastError = nil
	s.failures = 0
	s.mu.Unlock()

	s.metrics.recordRefresh(ctx, s.key, outcomeSuccess, now.Sub(start))
	s.logger.Info().
		Int("records", s.countOf(value)).
		Time("expires_at", now.Add(s.ttl)).
		Msg("feed snapshot refreshed")

	s.persist(ctx, value, now)
	return nil
}

func (s *Source[T]) persist(ctx context.Context, value T, fetchedAt time.Time) {
	if s.store == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode snapshot")
		return
	}
	if err := s.store.Save(ctx, s.key, data, fetchedAt); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist snapshot")
	}
}

// Warm loads the persisted snapshot into an empty source. The snapshot keeps
// its original fetch time, so an old one is stale on the first read.
func (s *Source[T]) Warm(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	data, fetchedAt, err := s.store.Load(ctx, s.key)
	if errors.Is(err, ErrSnapshotNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", s.key, err)
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", s.key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.populated {
		return nil
	}
	s.value = value
	s.populated = true
	s.fetchedAt = fetchedAt

	s.logger.Info().Time("fetched_at", fetchedAt).Msg("feed snapshot restored")
	return nil
}

// Invalidate marks the current snapshot stale so the next read refreshes it.
func (s *Source[T]) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated = true
}

// isFresh must be called with mu held.
func (s *Source[T]) isFresh() bool {
	return s.populated && !s.invalidated && s.clock.Since(s.fetchedAt) < s.ttl
}

// Status describes the freshness of a source.
type Status struct {
	Key                 string     `json:"key"`
	Name                string     `json:"name"`
	State               State      `json:"state"`
	Records             int        `json:"records"`
	FetchedAt           *time.Time `json:"fetchedAt,omitempty"`
	ExpiresAt           *time.Time `json:"expiresAt,omitempty"`
	LastAttemptAt       *time.Time `json:"lastAttemptAt,omitempty"`
	LastError           string     `json:"lastError,omitempty"`
	ConsecutiveFailures int        `json:"consecutiveFailures"`
}

// Status returns the source's current state.
func (s *Source[T]) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Key:                 s.key,
		Name:                s.name,
		State:               StateEmpty,
		ConsecutiveFailures: s.failures,
	}
	if !s.lastAttemptAt.IsZero() {
		t := s.lastAttemptAt
		st.LastAttemptAt = &t
	}
	if s.lastError != nil {
		st.LastError = s.lastError.Error()
	}
	if !s.populated {
		return st
	}

	fetchedAt := s.fetchedAt
	expiresAt := fetchedAt.Add(s.ttl)
	st.FetchedAt = &fetchedAt
	st.ExpiresAt = &expiresAt
	st.Records = s.countOf(s.value)
	st.State = StatePopulated
	if s.invalidated || !s.clock.Now().Before(expiresAt) {
		st.State = StateStale
	}
	return st
}

func (s *Source[T]) countOf(v T) int {
	if s.count == nil {
		return 0
	}
	return s.count(v)
}
