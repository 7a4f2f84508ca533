// Package config maps environment variables into a typed struct. A .env
// file in the working directory is merged first; real environment
// variables always win.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// Plex server shared by all linked users; tokens are per user.
	PlexURL string `env:"PLEX_URL,notEmpty"`

	// PlexPublicURL is the base for artwork links handed to clients.
	// Defaults to PlexURL.
	PlexPublicURL string `env:"PLEX_PUBLIC_URL"`

	MovieLibrary  string `env:"PLEX_LIBRARY" envDefault:"Movies"`
	SeriesLibrary string `env:"PLEX_SERIES_LIBRARY" envDefault:"TV Shows"`

	// CacheTTL bounds how long per-user clients and index snapshots are
	// reused before a rebuild.
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	DBType     string `env:"DB_TYPE" envDefault:"sqlite"`
	SQLitePath string `env:"DB_PATH" envDefault:"./reelpick.db"`

	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     int    `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"reelpick"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"reelpick"`

	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"./migrations"`
}

// Load merges an optional .env file into the environment and parses the
// result. Missing required variables fail here, before any wiring runs.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.PlexPublicURL == "" {
		cfg.PlexPublicURL = cfg.PlexURL
	}
	return cfg, nil
}
