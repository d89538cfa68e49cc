package geocode

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/outbackwarning/outbackwarning/internal/hazard"
)

// DefaultCacheSize is the number of queries remembered by CachedGeocoder.
const DefaultCacheSize = 128

// CachedGeocoder memoizes successful lookups by exact query string.
// Failures are not cached so they are retried on the next call.
type CachedGeocoder struct {
	inner Geocoder
	cache *lru.Cache[string, Result]
}

// NewCachedGeocoder wraps inner with an LRU of size entries.
func NewCachedGeocoder(inner Geocoder, size int) (*CachedGeocoder, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, Result](size)
	if err != nil {
		return nil, fmt.Errorf("create geocode cache: %w", err)
	}
	return &CachedGeocoder{inner: inner, cache: cache}, nil
}

// Geocode returns the cached result for query or resolves it through the
// wrapped geocoder.
func (c *CachedGeocoder) Geocode(ctx context.Context, query string) (Result, error) {
	if strings.TrimSpace(query) == "" {
		return Result{}, fmt.Errorf("%w: empty query", hazard.ErrNotFound)
	}
	if result, ok := c.cache.Get(query); ok {
		return result, nil
	}

	result, err := c.inner.Geocode(ctx, query)
	if err != nil {
		return Result{}, err
	}
	c.cache.Add(query, result)
	return result, nil
}
