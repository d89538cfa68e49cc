package models

// FeatureCollection is a GeoJSON feature collection.
type FeatureCollection struct {
	Type        string     `json:"type"`
	GeneratedAt *Timestamp `json:"generatedAt,omitempty"`
	Features    []Feature  `json:"features"`
}

// NewFeatureCollection returns an empty collection that encodes
// "features" as [] rather than null.
func NewFeatureCollection(capacity int) FeatureCollection {
	return FeatureCollection{Type: "FeatureCollection", Features: make([]Feature, 0, capacity)}
}

// Feature is a GeoJSON feature.
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   Geometry               `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// Geometry is a GeoJSON geometry. Coordinates are [lon, lat] pairs.
type Geometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

// PointGeometry returns a GeoJSON point.
func PointGeometry(lat, lon float64) Geometry {
	return Geometry{Type: "Point", Coordinates: []float64{lon, lat}}
}

// WarningArea is one warning polygon in compact form.
type WarningArea struct {
	Description string `json:"description"`
	Source      string `json:"source"`

	// Rings are polyline-encoded at five decimal places.
	Rings       []string `json:"rings"`
	PerimeterKm float64  `json:"perimeterKm"`
}

// WarningAreaList is the body of GET /v1/map/warnings.
type WarningAreaList struct {
	Items []WarningArea `json:"items"`
}
