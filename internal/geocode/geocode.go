// Package geocode turns free-text locations into coordinates.
package geocode

import (
	"context"

	"github.com/outbackwarning/outbackwarning/internal/geo"
)

// Result is a resolved location.
type Result struct {
	Coordinate  geo.Coordinate `json:"coordinate"`
	DisplayName string         `json:"displayName"`
}

// Geocoder resolves a query to its highest-ranked match. Every failure,
// including an empty query, wraps hazard.ErrNotFound.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (Result, error)
}
