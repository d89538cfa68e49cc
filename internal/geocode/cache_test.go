package geocode_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outbackwarning/outbackwarning/internal/geo"
	"github.com/outbackwarning/outbackwarning/internal/geocode"
	"github.com/outbackwarning/outbackwarning/internal/hazard"
)

type countingGeocoder struct {
	calls  map[string]int
	result geocode.Result
	err    error
}

func (m *countingGeocoder) Geocode(_ context.Context, query string) (geocode.Result, error) {
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[query]++
	return m.result, m.err
}

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{result: geocode.Result{Coordinate: geo.Coordinate{Lat: -35.1, Lon: 147.4}, DisplayName: "Wagga Wagga"}}
	cached, err := geocode.NewCachedGeocoder(inner, 10)
	require.NoError(t, err)

	r1, err := cached.Geocode(context.Background(), "Wagga Wagga")
	require.NoError(t, err)
	r2, err := cached.Geocode(context.Background(), "Wagga Wagga")
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, inner.calls["Wagga Wagga"])
}

func TestCachedGeocoder_ExactKey(t *testing.T) {
	inner := &countingGeocoder{result: geocode.Result{DisplayName: "Dubbo"}}
	cached, err := geocode.NewCachedGeocoder(inner, 10)
	require.NoError(t, err)

	_, _ = cached.Geocode(context.Background(), "Dubbo")
	_, _ = cached.Geocode(context.Background(), "dubbo")

	assert.Equal(t, 1, inner.calls["Dubbo"])
	assert.Equal(t, 1, inner.calls["dubbo"])
}

func TestCachedGeocoder_FailuresNotCached(t *testing.T) {
	inner := &countingGeocoder{err: hazard.ErrNotFound}
	cached, err := geocode.NewCachedGeocoder(inner, 10)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := cached.Geocode(context.Background(), "Atlantis")
		assert.ErrorIs(t, err, hazard.ErrNotFound)
	}
	assert.Equal(t, 2, inner.calls["Atlantis"])
}

func TestCachedGeocoder_EmptyQuery(t *testing.T) {
	inner := &countingGeocoder{}
	cached, err := geocode.NewCachedGeocoder(inner, 0)
	require.NoError(t, err)

	_, err = cached.Geocode(context.Background(), "   ")
	assert.ErrorIs(t, err, hazard.ErrNotFound)
	assert.Empty(t, inner.calls)
}

func TestCachedGeocoder_Eviction(t *testing.T) {
	inner := &countingGeocoder{result: geocode.Result{DisplayName: "x"}}
	cached, err := geocode.NewCachedGeocoder(inner, 2)
	require.NoError(t, err)

	for _, q := range []string{"a", "b", "c", "a"} {
		_, err := cached.Geocode(context.Background(), q)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, inner.calls["a"])

	_, err = cached.Geocode(context.Background(), "c")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls["c"])

	_, err = cached.Geocode(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls["b"])
}
