package featureflags

import (
	"context"
	"sync"
)

// InMemoryRepository keeps overrides in process memory. It backs
// deployments that run without a database, where overrides last until the
// process restarts.
type InMemoryRepository struct {
	mu    sync.RWMutex
	flags map[string]Flag
}

var _ Repository = (*InMemoryRepository)(nil)

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{flags: make(map[string]Flag)}
}

// NewInMemoryRepositoryWithFlags creates a repository seeded with flags.
func NewInMemoryRepositoryWithFlags(flags map[string]*Flag) *InMemoryRepository {
	repo := NewInMemoryRepository()
	for k, v := range flags {
		repo.flags[k] = *v
	}
	return repo
}

// GetFlag returns the override for key.
func (r *InMemoryRepository) GetFlag(_ context.Context, key string) (*Flag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	flag, ok := r.flags[key]
	if !ok {
		return nil, ErrFlagNotFound
	}
	return &flag, nil
}

// GetAllFlags returns every stored override.
func (r *InMemoryRepository) GetAllFlags(_ context.Context) (map[string]*Flag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*Flag, len(r.flags))
	for k, v := range r.flags {
		v := v
		result[k] = &v
	}
	return result, nil
}

// SetFlag stores an override.
func (r *InMemoryRepository) SetFlag(ctx context.Context, flag *Flag) error {
	return r.SetFlags(ctx, []*Flag{flag})
}

// SetFlags stores overrides under one lock.
func (r *InMemoryRepository) SetFlags(_ context.Context, flags []*Flag) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, flag := range flags {
		r.flags[flag.Key] = *flag
	}
	return nil
}

// DeleteFlag removes the override for key.
func (r *InMemoryRepository) DeleteFlag(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.flags[key]; !ok {
		return ErrFlagNotFound
	}
	delete(r.flags, key)
	return nil
}
