package geo

import "math"

// edgeEpsilon guards the crossing computation against edges with no latitude change.
const edgeEpsilon = 1e-12

// PointInPolygon reports whether p lies inside ring using ray casting toward
// +infinity longitude. The ring may be open or closed. Invalid vertices are
// dropped; rings with fewer than three distinct vertices never contain a point.
func PointInPolygon(p Coordinate, ring []Coordinate) bool {
	if !p.Valid() {
		return false
	}

	vertices := cleanRing(ring)
	if len(vertices) < 3 {
		return false
	}

	inside := false
	j := len(vertices) - 1
	for i := 0; i < len(vertices); i++ {
		vi, vj := vertices[i], vertices[j]
		if (vi.Lat > p.Lat) != (vj.Lat > p.Lat) {
			dLat := vj.Lat - vi.Lat
			if math.Abs(dLat) < edgeEpsilon {
				dLat = edgeEpsilon
			}
			crossLon := vi.Lon + (p.Lat-vi.Lat)*(vj.Lon-vi.Lon)/dLat
			if p.Lon < crossLon {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// AnyPolygonContains reports whether any ring contains p, stopping at the first match.
func AnyPolygonContains(p Coordinate, rings [][]Coordinate) bool {
	for _, ring := range rings {
		if PointInPolygon(p, ring) {
			return true
		}
	}
	return false
}

// cleanRing drops invalid vertices and a closing vertex equal to the first,
// and returns nil unless at least three distinct vertices remain.
func cleanRing(ring []Coordinate) []Coordinate {
	out := make([]Coordinate, 0, len(ring))
	distinct := make(map[Coordinate]struct{}, len(ring))
	for _, c := range ring {
		if !c.Valid() {
			continue
		}
		out = append(out, c)
		distinct[c] = struct{}{}
	}
	if len(distinct) < 3 {
		return nil
	}
	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}
