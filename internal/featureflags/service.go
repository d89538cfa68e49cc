package featureflags

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the feature flag service.
type ServiceConfig struct {
	Repository   Repository
	Logger       zerolog.Logger
	CacheTTL     time.Duration // How long to cache flags in memory
	DefaultFlags map[string]*Flag
	Clock        clockwork.Clock
}

// Service provides feature flag evaluation with caching and fallback to
// defaults. A nil *Service reports every flag as off.
type Service struct {
	repo         Repository
	logger       zerolog.Logger
	cacheTTL     time.Duration
	defaultFlags map[string]*Flag
	clock        clockwork.Clock

	mu          sync.RWMutex
	cache       map[string]*Flag
	cacheExpiry time.Time
}

// NewService creates a new feature flag service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Minute
	}

	defaultFlags := cfg.DefaultFlags
	if defaultFlags == nil {
		defaultFlags = DefaultFlags()
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	repo := cfg.Repository
	if repo == nil {
		repo = NewInMemoryRepository()
	}

	return &Service{
		repo:         repo,
		logger:       cfg.Logger,
		cacheTTL:     cacheTTL,
		defaultFlags: defaultFlags,
		clock:        clock,
		cache:        make(map[string]*Flag),
	}
}

// GetFlag retrieves a feature flag by key.
// Uses the cached value if not expired, with fallback to defaults.
func (s *Service) GetFlag(ctx context.Context, key string) *Flag {
	if s == nil {
		return nil
	}
	if flag := s.getCached(key); flag != nil {
		return flag
	}

	flag, err := s.repo.GetFlag(ctx, key)
	if err == nil {
		s.setCached(key, flag)
		return flag
	}

	if !errors.Is(err, ErrFlagNotFound) {
		s.logger.Warn().Err(err).Str("flag", key).Msg("failed to get feature flag from repository")
	}

	if defaultFlag, ok := s.defaultFlags[key]; ok {
		return defaultFlag
	}
	return nil
}

// GetAllFlags returns repository flags merged over the defaults.
func (s *Service) GetAllFlags(ctx context.Context) map[string]*Flag {
	result := make(map[string]*Flag, len(s.defaultFlags))
	for k, v := range s.defaultFlags {
		result[k] = v
	}

	flags, err := s.repo.GetAllFlags(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to get feature flags from repository, using defaults")
		return result
	}

	for k, v := range flags {
		result[k] = v
	}

	s.mu.Lock()
	s.cache = flags
	s.cacheExpiry = s.clock.Now().Add(s.cacheTTL)
	s.mu.Unlock()

	return result
}

// SetFlag updates a feature flag.
func (s *Service) SetFlag(ctx context.Context, flag *Flag) error {
	flag.UpdatedAt = s.clock.Now()
	if err := s.repo.SetFlag(ctx, flag); err != nil {
		return err
	}
	s.setCached(flag.Key, flag)
	return nil
}

// SetFlags updates multiple feature flags atomically.
func (s *Service) SetFlags(ctx context.Context, flags []*Flag) error {
	now := s.clock.Now()
	for _, flag := range flags {
		flag.UpdatedAt = now
	}

	if err := s.repo.SetFlags(ctx, flags); err != nil {
		return err
	}

	s.mu.Lock()
	for _, flag := range flags {
		s.cache[flag.Key] = flag
	}
	s.mu.Unlock()

	s.logger.Info().Int("count", len(flags)).Msg("feature flags updated")
	return nil
}

// ResetFlag drops the stored override for key so its default applies
// again. Resetting a flag with no override is not an error.
func (s *Service) ResetFlag(ctx context.Context, key string) error {
	if err := s.repo.DeleteFlag(ctx, key); err != nil && !errors.Is(err, ErrFlagNotFound) {
		return err
	}

	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()

	s.logger.Info().Str("key", key).Msg("feature flag reset to default")
	return nil
}

// InvalidateCache clears the cached flags, forcing a refresh on next access.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*Flag)
	s.cacheExpiry = time.Time{}
}

// IsEnabled returns true if the flag with the given key is truthy.
func (s *Service) IsEnabled(ctx context.Context, key string) bool {
	return s.GetFlag(ctx, key).BoolValue(false)
}

func (s *Service) getCached(key string) *Flag {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.clock.Now().After(s.cacheExpiry) {
		return nil
	}
	return s.cache[key]
}

func (s *Service) setCached(key string, flag *Flag) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[key] = flag
	now := s.clock.Now()
	if s.cacheExpiry.Before(now) {
		s.cacheExpiry = now.Add(s.cacheTTL)
	}
}

// IsLowBandwidth returns true if low-bandwidth mode is on.
func (s *Service) IsLowBandwidth(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagLowBandwidthMode)
}

// HotspotsDisabled returns true if hotspots should be treated as empty,
// either directly or through low-bandwidth mode.
func (s *Service) HotspotsDisabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagDisableHotspots) || s.IsLowBandwidth(ctx)
}

// IsCachedOnlyFeeds returns true if request paths must not refresh feeds.
func (s *Service) IsCachedOnlyFeeds(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagCachedOnlyFeeds)
}
