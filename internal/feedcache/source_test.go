package feedcache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outbackwarning/outbackwarning/internal/feedcache"
)

var errUpstream = errors.New("upstream down")

type fakeFeed struct {
	calls atomic.Int32
	mu    sync.Mutex
	value []string
	err   error
}

func (f *fakeFeed) set(value []string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value, f.err = value, err
}

func (f *fakeFeed) fetch(context.Context) ([]string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}

func newSource(clock clockwork.Clock, feed *fakeFeed, store feedcache.SnapshotStore) *feedcache.Source[[]string] {
	return feedcache.NewSource(feedcache.SourceConfig[[]string]{
		Key:    "test",
		Name:   "Test feed",
		TTL:    15 * time.Minute,
		Fetch:  feed.fetch,
		Empty:  []string{},
		Count:  func(v []string) int { return len(v) },
		Store:  store,
		Clock:  clock,
		Logger: zerolog.Nop(),
	})
}

func TestSource_EmptyToPopulated(t *testing.T) {
	clock := clockwork.NewFakeClock()
	feed := &fakeFeed{value: []string{"a", "b"}}
	src := newSource(clock, feed, nil)

	assert.Equal(t, feedcache.StateEmpty, src.Status().State)
	assert.Equal(t, "Test feed", src.Name())

	got := src.Get(context.Background())
	assert.Equal(t, []string{"a", "b"}, got)

	status := src.Status()
	assert.Equal(t, feedcache.StatePopulated, status.State)
	assert.Equal(t, 2, status.Records)
	require.NotNil(t, status.FetchedAt)
	assert.Equal(t, clock.Now(), *status.FetchedAt)
	assert.Equal(t, clock.Now().Add(15*time.Minute), *status.ExpiresAt)
}

func TestSource_ServesWithinTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	feed := &fakeFeed{value: []string{"a"}}
	src := newSource(clock, feed, nil)

	src.Get(context.Background())
	clock.Advance(14 * time.Minute)
	feed.set([]string{"b"}, nil)

	assert.Equal(t, []string{"a"}, src.Get(context.Background()))
	assert.Equal(t, int32(1), feed.calls.Load())
}

func TestSource_RefreshesWhenStale(t *testing.T) {
	clock := clockwork.NewFakeClock()
	feed := &fakeFeed{value: []string{"a"}}
	src := newSource(clock, feed, nil)

	src.Get(context.Background())
	clock.Advance(15 * time.Minute)
	assert.Equal(t, feedcache.StateStale, src.Status().State)

	feed.set([]string{"b"}, nil)
	assert.Equal(t, []string{"b"}, src.Get(context.Background()))
	assert.Equal(t, int32(2), feed.calls.Load())
	assert.Equal(t, feedcache.StatePopulated, src.Status().State)
}

func TestSource_StaleIfError(t *testing.T) {
	clock := clockwork.NewFakeClock()
	feed := &fakeFeed{value: []string{"a"}}
	src := newSource(clock, feed, nil)

	src.Get(context.Background())
	clock.Advance(time.Hour)
	feed.set(nil, errUpstream)

	assert.Equal(t, []string{"a"}, src.Get(context.Background()))

	status := src.Status()
	assert.Equal(t, feedcache.StateStale, status.State)
	assert.Equal(t, "upstream down", status.LastError)
	assert.Equal(t, 1, status.ConsecutiveFailures)

	// Every stale read retries while no backoff is configured.
	src.Get(context.Background())
	assert.Equal(t, int32(3), feed.calls.Load())
	assert.Equal(t, 2, src.Status().ConsecutiveFailures)
}

func TestSource_FailureWhileEmpty(t *testing.T) {
	clock := clockwork.NewFakeClock()
	feed := &fakeFeed{err: errUpstream}
	src := newSource(clock, feed, nil)

	got := src.Get(context.Background())
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, feedcache.StateEmpty, src.Status().State)

	err := src.Refresh(context.Background())
	assert.ErrorIs(t, err, errUpstream)
}

func TestSource_FailureBackoff(t *testing.T) {
	clock := clockwork.NewFakeClock()
	feed := &fakeFeed{err: errUpstream}
	src := feedcache.NewSource(feedcache.SourceConfig[[]string]{
		Key:            "backoff",
		TTL:            time.Minute,
		FailureBackoff: 30 * time.Second,
		Fetch:          feed.fetch,
		Clock:          clock,
		Logger:         zerolog.Nop(),
	})

	src.Get(context.Background())
	src.Get(context.Background())
	assert.Equal(t, int32(1), feed.calls.Load())

	clock.Advance(31 * time.Second)
	src.Get(context.Background())
	assert.Equal(t, int32(2), feed.calls.Load())
}

func TestSource_SingleFlight(t *testing.T) {
	clock := clockwork.NewFakeClock()
	release := make(chan struct{})
	var calls atomic.Int32

	src := feedcache.NewSource(feedcache.SourceConfig[[]string]{
		Key: "slow",
		TTL: time.Minute,
		Fetch: func(context.Context) ([]string, error) {
			calls.Add(1)
			<-release
			return []string{"x"}, nil
		},
		Clock:  clock,
		Logger: zerolog.Nop(),
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, []string{"x"}, src.Get(context.Background()))
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestSource_PersistAndWarm(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := feedcache.NewMemoryStore()

	first := newSource(clock, &fakeFeed{value: []string{"saved"}}, store)
	first.Get(context.Background())

	// A restarted process with a failing upstream serves the restored snapshot.
	clock.Advance(2 * time.Hour)
	failing := &fakeFeed{err: errUpstream}
	second := newSource(clock, failing, store)
	require.NoError(t, second.Warm(context.Background()))

	assert.Equal(t, feedcache.StateStale, second.Status().State)
	assert.Equal(t, []string{"saved"}, second.Get(context.Background()))
	assert.Equal(t, int32(1), failing.calls.Load())
}

func TestSource_WarmWithoutSnapshot(t *testing.T) {
	src := newSource(clockwork.NewFakeClock(), &fakeFeed{}, feedcache.NewMemoryStore())
	require.NoError(t, src.Warm(context.Background()))
	assert.Equal(t, feedcache.StateEmpty, src.Status().State)
}

func TestSource_Invalidate(t *testing.T) {
	clock := clockwork.NewFakeClock()
	feed := &fakeFeed{value: []string{"a"}}
	src := newSource(clock, feed, nil)

	src.Get(context.Background())
	src.Invalidate()
	assert.Equal(t, feedcache.StateStale, src.Status().State)

	src.Get(context.Background())
	assert.Equal(t, int32(2), feed.calls.Load())
	assert.Equal(t, feedcache.StatePopulated, src.Status().State)
}

func TestSource_PeekDoesNotFetch(t *testing.T) {
	feed := &fakeFeed{value: []string{"a"}}
	src := newSource(clockwork.NewFakeClock(), feed, nil)

	assert.Empty(t, src.Peek())
	assert.Zero(t, feed.calls.Load())
}
