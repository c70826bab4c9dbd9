// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// ErrMiniMaxAPIKeyRequired is returned when MINIMAX_API_KEY is not set.
var ErrMiniMaxAPIKeyRequired = errors.New("config: MINIMAX_API_KEY is required")

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// MiniMax settings
	MiniMaxAPIKey  string `env:"MINIMAX_API_KEY, required" json:"-"` // Masked in JSON
	MiniMaxBaseURL string `env:"MINIMAX_BASE_URL, default=https://api.minimax.io" json:"minimax_base_url"`

	// Credit settings
	VideoCredits int `env:"VIDEO_CREDITS, default=3" json:"video_credits"`

	// Video poll settings
	PollIntervalSec int `env:"POLL_INTERVAL_SEC, default=5" json:"poll_interval_sec"`
	PollMaxAttempts int `env:"POLL_MAX_ATTEMPTS, default=60" json:"poll_max_attempts"`

	// NonAnchorImageRetries is the number of extra image attempts for panels 2-4.
	// Panel 1 is never retried automatically; its failure stops the run.
	NonAnchorImageRetries int `env:"NON_ANCHOR_IMAGE_RETRIES, default=0" json:"non_anchor_image_retries"`

	// ScriptCacheTTLMin is how long script results are memoized per story idea.
	ScriptCacheTTLMin int `env:"SCRIPT_CACHE_TTL_MIN, default=30" json:"script_cache_ttl_min"`

	// Archive settings
	ArchiveDir string `env:"ARCHIVE_DIR, default=/tmp/comicmotion" json:"archive_dir"`

	// Optional S3 settings for archived assets
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// PollInterval returns the poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

// ScriptCacheTTL returns the script cache TTL as a duration.
func (c *Config) ScriptCacheTTL() time.Duration {
	return time.Duration(c.ScriptCacheTTLMin) * time.Minute
}

// Load reads configuration from environment variables using go-envconfig.
// It returns an error if required variables are not set.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		// Map envconfig errors to our domain errors for required fields
		if strings.Contains(err.Error(), "MINIMAX_API_KEY") {
			return nil, ErrMiniMaxAPIKeyRequired
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	if c.MiniMaxAPIKey == "" {
		return ErrMiniMaxAPIKeyRequired
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, MiniMaxBaseURL: %s, VideoCredits: %d, PollIntervalSec: %d, PollMaxAttempts: %d, NonAnchorImageRetries: %d, ArchiveDir: %s, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.MiniMaxBaseURL,
		c.VideoCredits,
		c.PollIntervalSec,
		c.PollMaxAttempts,
		c.NonAnchorImageRetries,
		c.ArchiveDir,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
