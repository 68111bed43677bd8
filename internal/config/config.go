// Package config defines the service configuration and how it is loaded.
package config

import (
	"fmt"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabaseURL selects the Postgres model store. Empty keeps models in
	// memory.
	DatabaseURL    string `koanf:"database_url"`
	DBPoolMaxConns int32  `koanf:"db_pool_max_conns"`

	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimit is the sustained requests per second allowed per client IP.
	// Zero disables rate limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
	// MaxForecastPoints caps the timestamps of one predict request.
	MaxForecastPoints int `koanf:"max_forecast_points"`

	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CrossValWorkers bounds the folds fitted concurrently per request.
	CrossValWorkers int `koanf:"crossval_workers"`
	// MaxCrossValCutoffs caps the folds of one cross-validation run.
	MaxCrossValCutoffs int `koanf:"max_crossval_cutoffs"`

	// Per-model caps on simulated draws and regression columns, and the
	// candidate cap of one grid search.
	MaxUncertaintySamples int `koanf:"max_uncertainty_samples"`
	MaxDesignColumns      int `koanf:"max_design_columns"`
	MaxTuneCandidates     int `koanf:"max_tune_candidates"`

	MetricsEnabled bool `koanf:"metrics_enabled"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":8080",
		DBPoolMaxConns:    10,
		CORSOrigins:       []string{"*"},
		RateLimit:         20,
		RateBurst:         40,
		MaxBodyBytes:      32 << 20,
		MaxForecastPoints: 100_000,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		CrossValWorkers:   runtime.NumCPU(),
		MetricsEnabled:    true,

		MaxCrossValCutoffs:    1000,
		MaxUncertaintySamples: 10_000,
		MaxDesignColumns:      1000,
		MaxTuneCandidates:     100,
	}
}

// Validate checks the settings that have no usable fallback.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.RateLimit < 0:
		return fmt.Errorf("%w: rate_limit must be >= 0", ErrInvalidConfig)
	case c.RateLimit > 0 && c.RateBurst < 1:
		return fmt.Errorf("%w: rate_burst must be >= 1 when rate limiting", ErrInvalidConfig)
	case c.MaxBodyBytes <= 0:
		return fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig)
	case c.MaxForecastPoints <= 0:
		return fmt.Errorf("%w: max_forecast_points must be positive", ErrInvalidConfig)
	case c.CrossValWorkers < 1:
		return fmt.Errorf("%w: crossval_workers must be >= 1", ErrInvalidConfig)
	case c.MaxCrossValCutoffs <= 0:
		return fmt.Errorf("%w: max_crossval_cutoffs must be positive", ErrInvalidConfig)
	case c.MaxUncertaintySamples <= 0:
		return fmt.Errorf("%w: max_uncertainty_samples must be positive", ErrInvalidConfig)
	case c.MaxDesignColumns <= 0:
		return fmt.Errorf("%w: max_design_columns must be positive", ErrInvalidConfig)
	case c.MaxTuneCandidates <= 0:
		return fmt.Errorf("%w: max_tune_candidates must be positive", ErrInvalidConfig)
	case c.DBPoolMaxConns < 1:
		return fmt.Errorf("%w: db_pool_max_conns must be >= 1", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	}
	return nil
}
