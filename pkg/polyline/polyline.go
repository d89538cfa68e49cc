// Package polyline encodes coordinate rings with Google's polyline algorithm
// so warning areas can be shipped to low-bandwidth map clients compactly.
// The algorithm is documented at
// https://developers.google.com/maps/documentation/utilities/polylinealgorithm
package polyline

import (
	"math"

	"github.com/outbackwarning/outbackwarning/internal/geo"
)

// DefaultPrecision is the standard five decimal places (about 1 m).
const DefaultPrecision = 5

// Decode decodes a polyline string at DefaultPrecision.
func Decode(encoded string) []geo.Coordinate {
	return DecodePrecision(encoded, DefaultPrecision)
}

// DecodePrecision decodes a polyline string encoded with the given number
// of decimal places. A truncated final pair is dropped.
func DecodePrecision(encoded string, precision int) []geo.Coordinate {
	if encoded == "" {
		return nil
	}

	factor := math.Pow10(precision)
	var coords []geo.Coordinate
	index, lat, lon := 0, 0, 0

	for index < len(encoded) {
		latDelta, next, ok := decodeValue(encoded, index)
		if !ok {
			break
		}
		lonDelta, next, ok := decodeValue(encoded, next)
		if !ok {
			break
		}
		index = next
		lat += latDelta
		lon += lonDelta

		coords = append(coords, geo.Coordinate{
			Lat: float64(lat) / factor,
			Lon: float64(lon) / factor,
		})
	}

	return coords
}

// decodeValue reads one varint-style value starting at index. ok is false
// when the string ends mid-value.
func decodeValue(encoded string, index int) (value, next int, ok bool) {
	shift, result := 0, 0

	for index < len(encoded) {
		b := int(encoded[index]) - 63
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			if result&1 != 0 {
				return ^(result >> 1), index, true
			}
			return result >> 1, index, true
		}
	}
	return 0, index, false
}

// Encode encodes coordinates at DefaultPrecision.
func Encode(coords []geo.Coordinate) string {
	return EncodePrecision(coords, DefaultPrecision)
}

// EncodePrecision encodes coordinates with the given number of decimal places.
func EncodePrecision(coords []geo.Coordinate, precision int) string {
	if len(coords) == 0 {
		return ""
	}

	factor := math.Pow10(precision)
	encoded := make([]byte, 0, len(coords)*6)
	prevLat, prevLon := 0, 0

	for _, c := range coords {
		lat := int(math.Round(c.Lat * factor))
		lon := int(math.Round(c.Lon * factor))

		encoded = encodeValue(encoded, lat-prevLat)
		encoded = encodeValue(encoded, lon-prevLon)

		prevLat, prevLon = lat, lon
	}

	return string(encoded)
}

func encodeValue(buf []byte, value int) []byte {
	if value < 0 {
		value = ^(value << 1)
	} else {
		value <<= 1
	}

	for value >= 0x20 {
		buf = append(buf, byte((value&0x1f)|0x20)+63)
		value >>= 5
	}
	return append(buf, byte(value)+63)
}

// LengthKm returns the path length of coords in kilometres.
func LengthKm(coords []geo.Coordinate) float64 {
	var total float64
	for i := 1; i < len(coords); i++ {
		total += geo.HaversineKm(coords[i-1], coords[i])
	}
	return total
}

// PerimeterKm returns the length of a ring, closing it if the last vertex
// does not repeat the first.
func PerimeterKm(ring []geo.Coordinate) float64 {
	if len(ring) < 2 {
		return 0
	}
	total := LengthKm(ring)
	if first, last := ring[0], ring[len(ring)-1]; first != last {
		total += geo.HaversineKm(last, first)
	}
	return total
}
