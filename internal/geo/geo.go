// Package geo provides the geospatial primitives used by risk scoring:
// coordinate validation, great-circle distance and bounding boxes.
package geo

import (
	"math"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate is finite and within
// lat [-90, 90] and lon [-180, 180].
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// HaversineKm returns the great-circle distance between a and b in kilometres.
func HaversineKm(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// NearestDistanceKm returns the distance from origin to the closest valid point.
// Invalid points are skipped. The second return value is false when the
// origin is invalid or no valid point exists.
func NearestDistanceKm(origin Coordinate, points []Coordinate) (float64, bool) {
	if !origin.Valid() {
		return 0, false
	}

	nearest := math.Inf(1)
	found := false
	for _, p := range points {
		if !p.Valid() {
			continue
		}
		if d := HaversineKm(origin, p); d < nearest {
			nearest = d
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return nearest, true
}

// WithinKm reports whether any of the first limit points lies within radiusKm
// of origin. It returns the index of the first qualifying point in input order,
// or -1. A limit <= 0 scans every point.
func WithinKm(origin Coordinate, points []Coordinate, radiusKm float64, limit int) int {
	if !origin.Valid() {
		return -1
	}
	if limit <= 0 || limit > len(points) {
		limit = len(points)
	}
	for i := 0; i < limit; i++ {
		if !points[i].Valid() {
			continue
		}
		if HaversineKm(origin, points[i]) <= radiusKm {
			return i
		}
	}
	return -1
}

// BoundingBox is an axis-aligned lat/lon rectangle. Edges are inclusive.
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLon float64 `json:"minLon"`
	MaxLon float64 `json:"maxLon"`
}

// Contains reports whether c lies inside the box, edges included.
func (b BoundingBox) Contains(c Coordinate) bool {
	if !c.Valid() {
		return false
	}
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat && c.Lon >= b.MinLon && c.Lon <= b.MaxLon
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() Coordinate {
	return Coordinate{
		Lat: (b.MinLat + b.MaxLat) / 2,
		Lon: (b.MinLon + b.MaxLon) / 2,
	}
}
