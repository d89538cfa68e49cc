// Package database manages the optional PostgreSQL pool that holds last
// good feed snapshots and feature flags.
package database

import (
	"context"
	"fmt"
	"hash/fnv"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds database connection configuration.
type Config struct {
	// URL, when set, is used as-is and the discrete fields are ignored.
	URL string

	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// ApplicationName shows up in pg_stat_activity.
	ApplicationName string

	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

// ConfigFromEnv creates a Config from DB_* environment variables, or from
// DATABASE_URL when it is set.
func ConfigFromEnv() Config {
	return Config{
		URL:             os.Getenv("DATABASE_URL"),
		Host:            getEnvOrDefault("DB_HOST", "localhost"),
		Port:            getIntOrDefault("DB_PORT", 5432),
		User:            getEnvOrDefault("DB_USER", "outbackwarning"),
		Password:        getEnvOrDefault("DB_PASSWORD", "localdev"),
		Database:        getEnvOrDefault("DB_NAME", "outbackwarning"),
		SSLMode:         getEnvOrDefault("DB_SSL_MODE", "disable"),
		ApplicationName: getEnvOrDefault("DB_APPLICATION_NAME", "outbackwarning"),
		MaxConns:        getIntOrDefault("DB_MAX_OPEN_CONNS", 4),
		MinConns:        getIntOrDefault("DB_MAX_IDLE_CONNS", 0),
		ConnMaxLifetime: getDurationOrDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		ConnectTimeout:  getDurationOrDefault("DB_CONNECT_TIMEOUT", 5*time.Second),
	}
}

// ConnectionString returns the PostgreSQL connection URL. The password is
// escaped so keys with reserved characters survive.
func (c Config) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + strconv.Itoa(c.Port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// Connect creates a pool and pings it. The snapshot store is a fallback, so
// the pool is kept small.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns) //nolint:gosec // small values from config
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns) //nolint:gosec // small values from config
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.ApplicationName != "" {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = cfg.ApplicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// EnsureSchema runs ddl inside a transaction holding an advisory lock keyed
// by name. The API and the worker start together and both create their
// tables; concurrent CREATE TABLE IF NOT EXISTS can still collide in the
// catalog without the lock.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, name, ddl string) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", lockKey(name)); err != nil {
			return fmt.Errorf("lock schema %s: %w", name, err)
		}
		if _, err := tx.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		return nil
	})
}

func lockKey(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("outbackwarning:" + name))
	return int64(h.Sum64()) //nolint:gosec // any 64-bit value is a valid lock key
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return d
}
