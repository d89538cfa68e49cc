package models

import "github.com/outbackwarning/outbackwarning/internal/geo"

// RiskResponse is the body of GET /v1/risk.
type RiskResponse struct {
	Query    string   `json:"query"`
	Score    float64  `json:"score"`
	District string   `json:"district,omitempty"`
	Tags     []string `json:"tags"`

	// Located is false when the query could not be geocoded.
	Located        bool            `json:"located"`
	Location       *geo.Coordinate `json:"location,omitempty"`
	DisplayName    string          `json:"displayName,omitempty"`
	RatingDistrict string          `json:"ratingDistrict,omitempty"`
	Rating         string          `json:"rating,omitempty"`

	Explanation string   `json:"explanation"`
	Actions     []string `json:"actions"`

	// Breakdown is omitted in low-bandwidth mode.
	Breakdown *RiskBreakdown `json:"breakdown,omitempty"`
}

// RiskBreakdown lists each contribution to the score.
type RiskBreakdown struct {
	NearestIncidentKm *float64 `json:"nearestIncidentKm,omitempty"`
	Proximity         float64  `json:"proximity"`
	InsideWarning     bool     `json:"insideWarning"`
	NearHotspot       bool     `json:"nearHotspot"`
	Base              float64  `json:"base"`
	Multiplier        float64  `json:"multiplier"`
}
