// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (session store, gateway) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Session Store Backends

// StoreKind selects where sessions are persisted.
type StoreKind string

const (
	StoreMemory   StoreKind = "memory"
	StoreFile     StoreKind = "file"
	StoreRedis    StoreKind = "redis"
	StorePostgres StoreKind = "postgres"
)

// # Configuration Schema

// Config holds all runtime configuration for the member portal.
type Config struct {

	// Server settings
	ServerPort  string `env:"PORTAL_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Membership REST backend
	BackendBaseURL string        `env:"BACKEND_BASE_URL" envDefault:"http://127.0.0.1:5000/"`
	GatewayTimeout time.Duration `env:"GATEWAY_TIMEOUT"  envDefault:"10s"`

	// Outbound rate limit towards the backend. Zero disables the limiter.
	GatewayRPS   float64 `env:"GATEWAY_RPS"   envDefault:"0"`
	GatewayBurst int     `env:"GATEWAY_BURST" envDefault:"20"`

	// Session persistence
	SessionStore        StoreKind     `env:"SESSION_STORE"         envDefault:"memory"`
	SessionFilePath     string        `env:"SESSION_FILE_PATH"     envDefault:"./data/sessions.json"`
	SessionTTL          time.Duration `env:"SESSION_TTL"           envDefault:"720h"`
	SessionCookieName   string        `env:"SESSION_COOKIE_NAME"   envDefault:"portal_session"`
	SessionCookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`

	// Key-Value Cache (Redis), required when SESSION_STORE=redis
	RedisURL string `env:"REDIS_URL"`

	// Relational Database (PostgreSQL), required when SESSION_STORE=postgres
	DatabaseURL   string `env:"DATABASE_URL"`
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Cross-Origin Resource Sharing, comma separated origin suffixes
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// DevBackend holds the configuration of the in-memory development backend.
type DevBackend struct {
	ServerPort string        `env:"DEV_BACKEND_PORT" envDefault:"5000"`
	JWTSecret  string        `env:"DEV_JWT_SECRET"   envDefault:"development-only-signing-secret"`
	AccessTTL  time.Duration `env:"DEV_ACCESS_TTL"   envDefault:"5m"`
	RefreshTTL time.Duration `env:"DEV_REFRESH_TTL"  envDefault:"24h"`
	Debug      bool          `env:"DEBUG"            envDefault:"false"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and validates
// the store-specific requirements.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDevBackend parses the development backend configuration.
func LoadDevBackend() (*DevBackend, error) {
	cfg := &DevBackend{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}
	return cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	switch c.SessionStore {
	case StoreMemory:
	case StoreFile:
		if c.SessionFilePath == "" {
			return fmt.Errorf("config: SESSION_FILE_PATH is required for the file session store")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("config: REDIS_URL is required for the redis session store")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for the postgres session store")
		}
	default:
		return fmt.Errorf("config: unknown SESSION_STORE %q", c.SessionStore)
	}

	if c.BackendBaseURL == "" {
		return fmt.Errorf("config: BACKEND_BASE_URL must not be empty")
	}

	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins splits EXTRA_ORIGINS into trimmed, non-empty suffixes.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
