// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config contains all runtime settings for the memory bridge.
type Config struct {
	// DBPath locates the SQLite database. Empty means the per-user default.
	DBPath string `env:"MEMORIA_DB"`

	BindAddr string `env:"MEMORIA_BIND_ADDR" envDefault:":8000"`

	// AllowAnyOrigin opens CORS for the browser capture extension. The bridge
	// is meant for localhost, so this defaults on; unset it when exposing the
	// bridge beyond the local machine.
	AllowAnyOrigin bool `env:"MEMORIA_ALLOW_ANY_ORIGIN" envDefault:"true"`

	MetricsNamespace string `env:"MEMORIA_METRICS_NAMESPACE" envDefault:"memoria"`

	// RecoverCorrupt rebuilds the database when the startup integrity check
	// fails instead of refusing to start. Data loss is explicit opt-in.
	RecoverCorrupt bool `env:"MEMORIA_RECOVER_CORRUPT" envDefault:"false"`
}

// Load reads .env (when present) and the environment, applying defaults.
func Load() (Config, error) {
	godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath()
	}
	if cfg.BindAddr == "" {
		return Config{}, fmt.Errorf("MEMORIA_BIND_ADDR must not be empty")
	}

	return cfg, nil
}

// DefaultDBPath is the per-user database location.
func DefaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".memoria", "memoria.db")
}
