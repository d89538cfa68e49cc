package geo_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/outbackwarning/outbackwarning/internal/geo"
)

var (
	sydney    = geo.Coordinate{Lat: -33.8688, Lon: 151.2093}
	newcastle = geo.Coordinate{Lat: -32.9283, Lon: 151.7817}
	dubbo     = geo.Coordinate{Lat: -32.2569, Lon: 148.6011}
)

func TestCoordinate_Valid(t *testing.T) {
	tests := []struct {
		name  string
		coord geo.Coordinate
		want  bool
	}{
		{"sydney", sydney, true},
		{"origin", geo.Coordinate{}, true},
		{"north pole edge", geo.Coordinate{Lat: 90, Lon: 180}, true},
		{"latitude too high", geo.Coordinate{Lat: 90.1, Lon: 0}, false},
		{"longitude too low", geo.Coordinate{Lat: 0, Lon: -180.5}, false},
		{"nan latitude", geo.Coordinate{Lat: math.NaN(), Lon: 0}, false},
		{"infinite longitude", geo.Coordinate{Lat: 0, Lon: math.Inf(1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.coord.Valid())
		})
	}
}

func TestHaversineKm(t *testing.T) {
	// Sydney to Newcastle is roughly 117 km.
	d := geo.HaversineKm(sydney, newcastle)
	assert.InDelta(t, 117, d, 3)

	assert.Zero(t, geo.HaversineKm(sydney, sydney))
}

func TestHaversineKm_Symmetric(t *testing.T) {
	pairs := [][2]geo.Coordinate{
		{sydney, newcastle},
		{sydney, dubbo},
		{newcastle, dubbo},
		{{Lat: -89, Lon: -179}, {Lat: 89, Lon: 179}},
	}

	for _, p := range pairs {
		assert.InDelta(t, geo.HaversineKm(p[0], p[1]), geo.HaversineKm(p[1], p[0]), 1e-6)
	}
}

func TestNearestDistanceKm(t *testing.T) {
	t.Run("empty set", func(t *testing.T) {
		_, ok := geo.NearestDistanceKm(sydney, nil)
		assert.False(t, ok)
	})

	t.Run("all invalid", func(t *testing.T) {
		_, ok := geo.NearestDistanceKm(sydney, []geo.Coordinate{{Lat: 200, Lon: 0}, {Lat: math.NaN()}})
		assert.False(t, ok)
	})

	t.Run("invalid origin", func(t *testing.T) {
		_, ok := geo.NearestDistanceKm(geo.Coordinate{Lat: -91}, []geo.Coordinate{sydney})
		assert.False(t, ok)
	})

	t.Run("skips invalid and picks closest", func(t *testing.T) {
		d, ok := geo.NearestDistanceKm(sydney, []geo.Coordinate{dubbo, {Lat: 1000}, newcastle})
		assert.True(t, ok)
		assert.InDelta(t, geo.HaversineKm(sydney, newcastle), d, 1e-9)
	})
}

func TestNearestDistanceKm_Monotonic(t *testing.T) {
	prev := math.Inf(1)
	for _, offset := range []float64{0.5, 0.3, 0.1, 0.05, 0} {
		incident := geo.Coordinate{Lat: sydney.Lat + offset, Lon: sydney.Lon}
		d, ok := geo.NearestDistanceKm(sydney, []geo.Coordinate{incident})
		assert.True(t, ok)
		assert.LessOrEqual(t, d, prev)
		prev = d
	}
}

func TestWithinKm(t *testing.T) {
	near := geo.Coordinate{Lat: sydney.Lat + 0.05, Lon: sydney.Lon}
	points := []geo.Coordinate{dubbo, {Lat: 500}, near, sydney}

	assert.Equal(t, 2, geo.WithinKm(sydney, points, 20, 0))
	assert.Equal(t, -1, geo.WithinKm(sydney, points, 20, 2))
	assert.Equal(t, -1, geo.WithinKm(sydney, []geo.Coordinate{dubbo}, 20, 0))
}

func TestBoundingBox_Contains(t *testing.T) {
	box := geo.BoundingBox{MinLat: -34, MaxLat: -33, MinLon: 151, MaxLon: 152}

	assert.True(t, box.Contains(sydney))
	assert.True(t, box.Contains(geo.Coordinate{Lat: -34, Lon: 151}))
	assert.False(t, box.Contains(dubbo))
	assert.False(t, box.Contains(geo.Coordinate{Lat: math.NaN(), Lon: 151.5}))
	assert.Equal(t, geo.Coordinate{Lat: -33.5, Lon: 151.5}, box.Center())
}
