package domain

import (
	"time"
)

// Configuration Models

// Config represents the main application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Session   SessionConfig   `mapstructure:"session"`
	Explain   ExplainConfig   `mapstructure:"explain"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	// MaxUploadBytes bounds the size of an uploaded variant file.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

// CatalogConfig locates the versioned reference catalog files
type CatalogConfig struct {
	AlleleDefinitionsPath string `mapstructure:"allele_definitions_path"`
	GuidelinesPath        string `mapstructure:"guidelines_path"`
}

// SessionConfig configures the transient parsed-variant session cache
type SessionConfig struct {
	MaxEntries int `mapstructure:"max_entries"`
}

// ExplainConfig configures the external explanation-generation service
type ExplainConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit int           `mapstructure:"rate_limit"`
}

// RateLimitConfig configures per-client request rate limiting
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
