package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the mapping engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"` // Set at load time, not from config

	// Analysis holds engine tunables. Confidence thresholds and the
	// candidate floor are invariant constants and deliberately absent here.
	Analysis AnalysisConfig `yaml:"analysis"`

	// Database configuration for the mapping-history store (PostgreSQL).
	Database DatabaseConfig `yaml:"database"`
}

// AnalysisConfig holds field-analysis tunables.
type AnalysisConfig struct {
	// MaxConcurrent bounds parallel per-field scoring.
	MaxConcurrent int `yaml:"max_concurrent" env:"ANALYSIS_MAX_CONCURRENT" env-default:"8"`

	// HistoryLookupTimeoutMS bounds each historical-success lookup. Lookups
	// that exceed it fall back to the neutral score.
	HistoryLookupTimeoutMS int `yaml:"history_lookup_timeout_ms" env:"ANALYSIS_HISTORY_LOOKUP_TIMEOUT_MS" env-default:"250"`
}

// HistoryLookupTimeout returns the lookup timeout as a duration.
func (c *AnalysisConfig) HistoryLookupTimeout() time.Duration {
	return time.Duration(c.HistoryLookupTimeoutMS) * time.Millisecond
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"mapwise"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"mapping_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Load reads configuration from config.yaml with environment variable
// overrides. When no config.yaml exists, configuration comes from the
// environment alone. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if cfg.Analysis.MaxConcurrent < 1 {
		return nil, fmt.Errorf("analysis.max_concurrent must be at least 1")
	}
	if cfg.Analysis.HistoryLookupTimeoutMS < 1 {
		return nil, fmt.Errorf("analysis.history_lookup_timeout_ms must be at least 1")
	}

	return cfg, nil
}
