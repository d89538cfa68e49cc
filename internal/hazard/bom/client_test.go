package bom_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outbackwarning/outbackwarning/internal/geo"
	"github.com/outbackwarning/outbackwarning/internal/hazard"
	"github.com/outbackwarning/outbackwarning/internal/hazard/bom"
)

const capDocument = `<?xml version="1.0" encoding="ISO-8859-1"?>
<alert xmlns="urn:oasis:names:tc:emergency:cap:1.2">
  <identifier>IDN21033</identifier>
  <info>
    <headline>Severe Weather Warning for Damaging Winds</headline>
    <effective>2024-12-01T04:00:00+11:00</effective>
    <area>
      <areaDesc>Central Tablelands</areaDesc>
      <polygon>-33.0,149.0 -33.0,150.0 -34.0,150.0 -34.0,149.0 -33.0,149.0</polygon>
    </area>
    <area>
      <areaDesc>Nowhere</areaDesc>
    </area>
  </info>
  <info>
    <effective>2024-12-01T06:00:00+11:00</effective>
    <area>
      <polygon>-30,150 bad -30,151 -31,151,2 -31,150 95,150</polygon>
      <polygon>-29,152 -29,153 -28.5,152.5</polygon>
    </area>
  </info>
</alert>`

func TestParse(t *testing.T) {
	w, err := bom.Parse([]byte(capDocument))
	require.NoError(t, err)

	require.Len(t, w.Items, 2)
	assert.Equal(t, "Severe Weather Warning for Damaging Winds", w.Items[0].Title)
	assert.Equal(t, "2024-12-01T04:00:00+11:00", w.Items[0].Time)
	assert.Equal(t, "Issued by Bureau of Meteorology", w.Items[0].Summary)
	assert.Equal(t, bom.WarningsPageURL, w.Items[0].URL)
	assert.Equal(t, "BOM Warning", w.Items[1].Title)

	require.Len(t, w.Polygons, 2)
	assert.Equal(t, "Central Tablelands", w.Polygons[0].Description)
	assert.Equal(t, hazard.SourceBOM, w.Polygons[0].Source)
	assert.True(t, w.Polygons[0].Contains(geo.Coordinate{Lat: -33.5, Lon: 149.5}))

	assert.Equal(t, "BOM Area", w.Polygons[1].Description)
	require.Len(t, w.Polygons[1].Rings, 2)
	assert.Len(t, w.Polygons[1].Rings[0], 3)
}

func TestParse_Invalid(t *testing.T) {
	_, err := bom.Parse([]byte(`<alert><info>`))
	assert.ErrorIs(t, err, hazard.ErrUpstreamUnavailable)

	_, err = bom.Parse([]byte(``))
	assert.ErrorIs(t, err, hazard.ErrUpstreamUnavailable)
}

func TestParse_NoWarnings(t *testing.T) {
	w, err := bom.Parse([]byte(`<warnings></warnings>`))
	require.NoError(t, err)
	assert.Empty(t, w.Polygons)
	assert.Empty(t, w.Items)
}

func TestParseRing(t *testing.T) {
	ring := bom.ParseRing("  -33.5,150.1\n-33.6,150.2\t1,2,3 x,y -100,150 ")
	assert.Equal(t, []geo.Coordinate{
		{Lat: -33.5, Lon: 150.1},
		{Lat: -33.6, Lon: 150.2},
	}, ring)
}

func TestClient_FetchWarnings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(capDocument))
	}))
	defer server.Close()

	client := bom.NewClient(bom.ClientConfig{URL: server.URL, HTTPClient: http.DefaultClient})
	assert.Equal(t, bom.ProviderName, client.Name())

	w, err := client.FetchWarnings(context.Background())
	require.NoError(t, err)
	assert.Len(t, w.Polygons, 2)
}

func TestClient_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := bom.NewClient(bom.ClientConfig{URL: server.URL, HTTPClient: http.DefaultClient})

	_, err := client.FetchWarnings(context.Background())
	assert.ErrorIs(t, err, hazard.ErrUpstreamUnavailable)
}
