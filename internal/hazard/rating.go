package hazard

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RatingLevel is a normalized fire danger rating.
type RatingLevel string

const (
	RatingNone         RatingLevel = "No Rating"
	RatingModerate     RatingLevel = "Moderate"
	RatingHigh         RatingLevel = "High"
	RatingExtreme      RatingLevel = "Extreme"
	RatingCatastrophic RatingLevel = "Catastrophic"
	RatingUnknown      RatingLevel = "Unknown"
)

// multipliers is the severity weighting table.
var multipliers = map[RatingLevel]float64{
	RatingNone:         1.00,
	RatingModerate:     1.10,
	RatingHigh:         1.25,
	RatingExtreme:      1.50,
	RatingCatastrophic: 1.75,
	RatingUnknown:      1.00,
}

// Multiplier returns the severity weight for a level. Levels outside the
// table weigh 1.00.
func (l RatingLevel) Multiplier() float64 {
	if m, ok := multipliers[l]; ok {
		return m
	}
	return 1.0
}

var titleCaser = cases.Title(language.English)

// NormalizeLevel maps a raw upstream rating to a RatingLevel.
// Unrecognised non-empty values are returned title-cased.
func NormalizeLevel(raw string) RatingLevel {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "":
		return RatingUnknown
	case "no rating", "no-rating", "none":
		return RatingNone
	case "moderate", "low-moderate", "low to moderate":
		return RatingModerate
	case "high":
		return RatingHigh
	case "extreme":
		return RatingExtreme
	case "catastrophic":
		return RatingCatastrophic
	}
	return RatingLevel(titleCaser.String(s))
}

// DistrictRatings maps a district name to today's rating.
type DistrictRatings map[string]RatingLevel
