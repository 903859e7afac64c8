// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the settings of the tenantdesk server. OpenTelemetry has its
// own settings, see otel.ConfigFromEnv.
type Config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	DatabasePath    string        `env:"DATABASE_PATH" envDefault:":memory:"`
	ProcessingDelay time.Duration `env:"PROCESSING_DELAY" envDefault:"2s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
	SeedDemo        bool          `env:"SEED_DEMO" envDefault:"true"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	RiverMaxWorkers int           `env:"RIVER_MAX_WORKERS" envDefault:"2"`
	InvoiceIssuer   string        `env:"INVOICE_ISSUER" envDefault:"Tenantdesk Billing"`
}

// Load reads an optional .env file from the working directory, or the files
// given, and parses the environment. Variables already set win over the file.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading env file: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.ProcessingDelay < 0 {
		return Config{}, fmt.Errorf("PROCESSING_DELAY must not be negative, got %s", cfg.ProcessingDelay)
	}
	return cfg, nil
}

// Level maps LOG_LEVEL to a slog level. Unknown values fall back to info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
