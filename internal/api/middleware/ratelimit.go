package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/outbackwarning/outbackwarning/internal/api/models"
)

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	RequestLimit int
	WindowLength time.Duration
}

// Default rate limits.
var (
	// RiskRateLimit applies to endpoints that geocode (30 req/min). The
	// public Nominatim service allows about one request per second overall.
	RiskRateLimit = RateLimitConfig{RequestLimit: 30, WindowLength: time.Minute}

	// StandardRateLimit applies to cached read endpoints (100 req/min).
	StandardRateLimit = RateLimitConfig{RequestLimit: 100, WindowLength: time.Minute}

	// AdminRateLimit applies to operator endpoints (20 req/min).
	AdminRateLimit = RateLimitConfig{RequestLimit: 20, WindowLength: time.Minute}
)

// RateLimitByIP limits requests per client IP (as extracted by chi's RealIP).
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(rateLimitExceeded(cfg)),
	)
}

// RateLimitByOperator limits requests per authenticated operator, falling
// back to the client IP.
func RateLimitByOperator(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(keyByOperatorOrIP),
		httprate.WithLimitHandler(rateLimitExceeded(cfg)),
	)
}

func keyByOperatorOrIP(r *http.Request) (string, error) {
	if op := GetOperator(r.Context()); op != "" {
		return "operator:" + op, nil
	}
	return httprate.KeyByRealIP(r)
}

// rateLimitExceeded writes a 429 problem. httprate does not expose the reset
// time, so Retry-After is the full window.
func rateLimitExceeded(cfg RateLimitConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		models.NewTooManyRequests(
			GetRequestID(r.Context()),
			"Rate limit exceeded. Please try again later.",
			cfg.WindowLength,
		).At(r.URL.Path).Write(w)
	}
}
