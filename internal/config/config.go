// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/outbackwarning/outbackwarning/internal/database"
	"github.com/outbackwarning/outbackwarning/internal/feedcache"
	"github.com/outbackwarning/outbackwarning/internal/telemetry"
)

// Incident feed formats.
const (
	IncidentFormatJSON   = "json"
	IncidentFormatGeoRSS = "georss"
)

// Log formats.
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// ErrInvalid is returned for values that cannot be parsed.
var ErrInvalid = errors.New("invalid configuration")

// Feeds holds upstream URLs. Empty values select each adapter's default.
type Feeds struct {
	IncidentsURL    string
	IncidentsFormat string
	RatingsURL      string
	WarningsURL     string
	HotspotsURL     string
	CustomRatingURL string
	HTTPTimeout     time.Duration
}

// Geocoding holds geocoder settings.
type Geocoding struct {
	BaseURL   string
	Region    string
	CacheSize int
}

// PubSub holds refresh trigger settings. Empty ProjectID disables it.
type PubSub struct {
	ProjectID    string
	Subscription string
}

// Config is the complete process configuration.
type Config struct {
	Port         string
	Environment  string
	LogLevel     zerolog.Level
	LogFormat    string
	OTelEnabled  bool
	OTLPEndpoint string
	OTelInsecure bool

	// OTelSampleRatio is the fraction of root traces kept.
	OTelSampleRatio    float64
	OTelMetricInterval time.Duration

	// RequireTLS rejects requests a load balancer reports as plain HTTP.
	RequireTLS bool

	Feeds          Feeds
	TTLs           feedcache.TTLs
	FailureBackoff time.Duration
	Geocoding      Geocoding

	DatabaseEnabled bool
	Database        database.Config

	OperatorSigningKey string
	PubSub             PubSub

	RefreshInterval time.Duration
	RefreshSchedule string
}

// Load reads configuration from the environment, after loading any .env
// file in the working directory.
func Load() (Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	var errs []error
	level, err := zerolog.ParseLevel(strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")))
	if err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", ErrInvalid))
	}

	defaults := feedcache.DefaultTTLs()
	cfg := Config{
		Port:         getEnvOrDefault("APP_PORT", "8080"),
		Environment:  getEnvOrDefault("APP_ENV", "development"),
		LogLevel:     level,
		LogFormat:    strings.ToLower(getEnvOrDefault("LOG_FORMAT", LogFormatJSON)),
		OTelEnabled:  getBool("OTEL_ENABLED", false, &errs),
		OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelInsecure: getBool("OTEL_EXPORTER_OTLP_INSECURE", true, &errs),

		OTelSampleRatio:    getRatio("OTEL_TRACES_SAMPLER_ARG", 1, &errs),
		OTelMetricInterval: getDuration("OTEL_METRIC_EXPORT_INTERVAL", 15*time.Second, &errs),
		RequireTLS:   getBool("REQUIRE_TLS", false, &errs),
		Feeds: Feeds{
			IncidentsURL:    os.Getenv("RFS_INCIDENTS_URL"),
			IncidentsFormat: strings.ToLower(getEnvOrDefault("RFS_INCIDENTS_FORMAT", IncidentFormatJSON)),
			RatingsURL:      os.Getenv("RFS_RATINGS_URL"),
			WarningsURL:     os.Getenv("BOM_WARNINGS_URL"),
			HotspotsURL:     os.Getenv("FIRMS_URL"),
			CustomRatingURL: os.Getenv("AFDRS_CUSTOM_URL"),
			HTTPTimeout:     getDuration("HTTP_TIMEOUT", 10*time.Second, &errs),
		},
		TTLs: feedcache.TTLs{
			Incidents: getDuration("INCIDENTS_TTL", defaults.Incidents, &errs),
			Warnings:  getDuration("WARNINGS_TTL", defaults.Warnings, &errs),
			Hotspots:  getDuration("HOTSPOTS_TTL", defaults.Hotspots, &errs),
			Ratings:   getDuration("RATINGS_TTL", defaults.Ratings, &errs),
		},
		FailureBackoff: getDuration("FEED_FAILURE_BACKOFF", 30*time.Second, &errs),
		Geocoding: Geocoding{
			BaseURL:   os.Getenv("NOMINATIM_URL"),
			Region:    os.Getenv("GEOCODE_REGION"),
			CacheSize: getInt("GEOCODE_CACHE_SIZE", 128, &errs),
		},
		DatabaseEnabled:    getBool("DB_ENABLED", false, &errs),
		Database:           database.ConfigFromEnv(),
		OperatorSigningKey: os.Getenv("OPERATOR_SIGNING_KEY"),
		PubSub: PubSub{
			ProjectID:    os.Getenv("PUBSUB_PROJECT_ID"),
			Subscription: getEnvOrDefault("PUBSUB_SUBSCRIPTION", "feed-refresh"),
		},
		RefreshInterval: getDuration("REFRESH_INTERVAL", 5*time.Minute, &errs),
		RefreshSchedule: os.Getenv("REFRESH_SCHEDULE"),
	}

	switch cfg.Feeds.IncidentsFormat {
	case IncidentFormatJSON, IncidentFormatGeoRSS:
	default:
		errs = append(errs, fmt.Errorf("RFS_INCIDENTS_FORMAT %q: %w", cfg.Feeds.IncidentsFormat, ErrInvalid))
	}

	switch cfg.LogFormat {
	case LogFormatJSON, LogFormatConsole:
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q: %w", cfg.LogFormat, ErrInvalid))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Telemetry returns the OpenTelemetry settings for a process.
func (c Config) Telemetry(service, version string) telemetry.Config {
	return telemetry.Config{
		ServiceName:    service,
		ServiceVersion: version,
		Environment:    c.Environment,
		OTLPEndpoint:   c.OTLPEndpoint,
		Enabled:        c.OTelEnabled,
		Insecure:       c.OTelInsecure,
		SampleRatio:    c.OTelSampleRatio,
		MetricInterval: c.OTelMetricInterval,
	}
}

// Log returns the root logger settings for a process.
func (c Config) Log(service, version string) telemetry.LogConfig {
	return telemetry.LogConfig{
		Service: service,
		Version: version,
		Level:   c.LogLevel,
		Console: c.LogFormat == LogFormatConsole,
	}
}

// IsProduction reports whether APP_ENV is "production".
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, def time.Duration, errs *[]error) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		*errs = append(*errs, fmt.Errorf("%s %q: %w", key, raw, ErrInvalid))
		return def
	}
	return d
}

func getInt(key string, def int, errs *[]error) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		*errs = append(*errs, fmt.Errorf("%s %q: %w", key, raw, ErrInvalid))
		return def
	}
	return n
}

func getRatio(key string, def float64, errs *[]error) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 || f > 1 {
		*errs = append(*errs, fmt.Errorf("%s %q: %w", key, raw, ErrInvalid))
		return def
	}
	return f
}

func getBool(key string, def bool, errs *[]error) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s %q: %w", key, raw, ErrInvalid))
		return def
	}
	return b
}
