// Package district resolves NSW fire danger districts from coordinates and
// free text. District boxes are coarse rectangles that overlap; lookups
// return the first match in list order.
package district

import (
	"sort"
	"strings"

	"github.com/outbackwarning/outbackwarning/internal/geo"
	"github.com/outbackwarning/outbackwarning/internal/hazard"
)

// Unknown is returned when a name cannot be resolved.
const Unknown = "Unknown"

// Region is a named bounding box approximating one district.
type Region struct {
	Name string          `json:"name"`
	Box  geo.BoundingBox `json:"box"`
}

func box(minLat, maxLat, minLon, maxLon float64) geo.BoundingBox {
	return geo.BoundingBox{MinLat: minLat, MaxLat: maxLat, MinLon: minLon, MaxLon: maxLon}
}

// regions is ordered; earlier entries win where boxes overlap.
var regions = []Region{
	{"Greater Sydney", box(-34.30, -32.80, 149.50, 151.50)},
	{"Greater Hunter", box(-33.50, -31.50, 150.00, 152.00)},
	{"Illawarra Shoalhaven", box(-35.50, -34.00, 149.80, 151.20)},
	{"Far South Coast", box(-37.50, -36.00, 149.00, 150.50)},
	{"Monaro Alpine", box(-37.00, -35.50, 147.00, 149.50)},
	{"Southern Ranges", box(-36.20, -34.20, 147.00, 150.00)},
	{"Central Ranges", box(-33.90, -31.90, 148.00, 150.50)},
	{"New England and N. Tablelands", box(-31.60, -28.50, 149.50, 152.50)},
	{"Northern Rivers", box(-29.80, -28.00, 152.80, 153.60)},
	{"Mid North Coast", box(-32.30, -29.90, 151.50, 153.20)},
	{"North Western", box(-32.00, -28.00, 147.00, 150.00)},
	{"Upper Central West Plains", box(-33.00, -31.50, 146.00, 149.00)},
	{"Lower Central West Plains", box(-34.50, -33.00, 146.00, 149.00)},
	{"Riverina", box(-36.50, -33.80, 144.00, 148.00)},
	{"South Western", box(-35.50, -33.00, 140.80, 144.80)},
}

// Regions returns a copy of the district list in lookup order.
func Regions() []Region {
	out := make([]Region, len(regions))
	copy(out, regions)
	return out
}

// Names returns the canonical district names in lookup order.
func Names() []string {
	names := make([]string, len(regions))
	for i, r := range regions {
		names[i] = r.Name
	}
	return names
}

// Detect returns the first district whose box contains c.
func Detect(c geo.Coordinate) (string, bool) {
	for _, r := range regions {
		if r.Box.Contains(c) {
			return r.Name, true
		}
	}
	return "", false
}

// ResolveName maps free text to a canonical name by case-insensitive
// containment in either direction. No match returns Unknown.
func ResolveName(text string) string {
	name, err := Lookup(text)
	if err != nil {
		return Unknown
	}
	return name
}

// Lookup is ResolveName with an explicit hazard.ErrNoMatch.
func Lookup(text string) (string, error) {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return "", hazard.ErrNoMatch
	}
	for _, r := range regions {
		name := strings.ToLower(r.Name)
		if strings.Contains(name, needle) || strings.Contains(needle, name) {
			return r.Name, nil
		}
	}
	return "", hazard.ErrNoMatch
}

// RatingFor finds name in ratings by case-insensitive containment in either
// direction, checking keys in sorted order. No match returns RatingUnknown.
func RatingFor(ratings hazard.DistrictRatings, name string) hazard.RatingLevel {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" || len(ratings) == 0 {
		return hazard.RatingUnknown
	}

	if level, ok := ratings[name]; ok {
		return level
	}

	keys := make([]string, 0, len(ratings))
	for k := range ratings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		kl := strings.ToLower(k)
		if strings.Contains(kl, needle) || strings.Contains(needle, kl) {
			return ratings[k]
		}
	}
	return hazard.RatingUnknown
}
