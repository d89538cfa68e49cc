package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outbackwarning/outbackwarning/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Equal(t, config.IncidentFormatJSON, cfg.Feeds.IncidentsFormat)
	assert.Equal(t, 15*time.Minute, cfg.TTLs.Incidents)
	assert.Equal(t, 60*time.Minute, cfg.TTLs.Ratings)
	assert.Equal(t, 128, cfg.Geocoding.CacheSize)
	assert.False(t, cfg.DatabaseEnabled)
	assert.False(t, cfg.RequireTLS)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, config.LogFormatJSON, cfg.LogFormat)
	assert.Equal(t, 1.0, cfg.OTelSampleRatio)
	assert.True(t, cfg.OTelInsecure)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("RFS_INCIDENTS_FORMAT", "GeoRSS")
	t.Setenv("HOTSPOTS_TTL", "45m")
	t.Setenv("GEOCODE_CACHE_SIZE", "16")
	t.Setenv("DB_ENABLED", "true")
	t.Setenv("REQUIRE_TLS", "1")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.Equal(t, config.IncidentFormatGeoRSS, cfg.Feeds.IncidentsFormat)
	assert.Equal(t, 45*time.Minute, cfg.TTLs.Hotspots)
	assert.Equal(t, 16, cfg.Geocoding.CacheSize)
	assert.True(t, cfg.DatabaseEnabled)
	assert.True(t, cfg.RequireTLS)
	assert.Equal(t, 0.25, cfg.OTelSampleRatio)

	tel := cfg.Telemetry("outbackwarning-api", "1.0.0")
	assert.Equal(t, "outbackwarning-api", tel.ServiceName)
	assert.Equal(t, "production", tel.Environment)
	assert.Equal(t, 0.25, tel.SampleRatio)

	logCfg := cfg.Log("outbackwarning-api", "1.0.0")
	assert.True(t, logCfg.Console)
	assert.Equal(t, zerolog.DebugLevel, logCfg.Level)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("RATINGS_TTL", "soon")
	t.Setenv("RFS_INCIDENTS_FORMAT", "xml")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "2")
	t.Setenv("LOG_FORMAT", "logfmt")

	_, err := config.Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalid))
	assert.Contains(t, err.Error(), "RATINGS_TTL")
	assert.Contains(t, err.Error(), "RFS_INCIDENTS_FORMAT")
	assert.Contains(t, err.Error(), "OTEL_TRACES_SAMPLER_ARG")
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}
