// Package config provides configuration loading and validation for the API
// and ingest servers. It uses koanf to merge environment variables with
// optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the Newsreel servers.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Database
	DatabaseURL string `koanf:"database_url"`

	// Redis (trending snapshot cache). Optional; when unset the in-memory
	// snapshot store is used.
	RedisURL string `koanf:"redis_url"`

	// Ingestion. FirehoseURL enables the streaming transport, PollURL the
	// periodic HTTP transport. Either, both, or neither may be set.
	FirehoseURL         string `koanf:"firehose_url"`
	PollURL             string `koanf:"poll_url"`
	PollIntervalMinutes int    `koanf:"poll_interval_minutes"`

	// Ranking calibration file (JSON). Optional; defaults apply when unset.
	CalibrationPath string `koanf:"calibration_path"`

	// Trending refresh interval in minutes.
	TrendingIntervalMinutes int `koanf:"trending_interval_minutes"`

	// Feature Flags
	SerendipityEnabled bool `koanf:"serendipity_enabled"` // Include the serendipity sub-score in ranking
}

// Configuration validation errors.
var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")
	ErrInvalidPort        = errors.New("PORT must be a valid integer")
	ErrInvalidInterval    = errors.New("interval must be a positive integer")
)

// Default values for non-secret configuration.
const (
	DefaultPort                    = 8080
	DefaultEnv                     = "development"
	DefaultPollIntervalMinutes     = 15
	DefaultTrendingIntervalMinutes = 5
	DefaultSerendipityEnabled      = true
)

// Load reads configuration from environment variables and an optional config file.
// Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if valid).
// If a config file path is provided and the file cannot be loaded, an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	// Parse port from env, collecting error if invalid
	// Try NEWSREEL_PORT first, then PORT for backward compatibility
	port, portErr := getEnvIntOrDefaultMulti([]string{"NEWSREEL_PORT", "PORT"}, k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	pollInterval, pollErr := getEnvIntOrDefault("POLL_INTERVAL_MINUTES", k.Int("poll_interval_minutes"), DefaultPollIntervalMinutes)
	if pollErr != nil {
		loadErrs = append(loadErrs, pollErr)
	}

	trendingInterval, trendingErr := getEnvIntOrDefault("TRENDING_INTERVAL_MINUTES", k.Int("trending_interval_minutes"), DefaultTrendingIntervalMinutes)
	if trendingErr != nil {
		loadErrs = append(loadErrs, trendingErr)
	}

	// Parse serendipity feature flag from env with default
	serendipityEnabled := DefaultSerendipityEnabled
	if k.Exists("serendipity_enabled") {
		serendipityEnabled = k.Bool("serendipity_enabled")
	}
	if val := os.Getenv("SERENDIPITY_ENABLED"); val != "" {
		// Env var takes precedence over file config
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			serendipityEnabled = true
		case "false", "0", "no", "off":
			serendipityEnabled = false
		}
	}

	// Build config struct, with env vars taking precedence over file values
	cfg := &Config{
		Port:                    port,
		Env:                     getEnvOrDefaultMulti([]string{"NEWSREEL_ENV", "ENV", "GO_ENV"}, k.String("env"), DefaultEnv),
		DatabaseURL:             getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		RedisURL:                getEnvOrKoanf("REDIS_URL", k, "redis_url"),
		FirehoseURL:             getEnvOrKoanf("FIREHOSE_URL", k, "firehose_url"),
		PollURL:                 getEnvOrKoanf("POLL_URL", k, "poll_url"),
		PollIntervalMinutes:     pollInterval,
		CalibrationPath:         getEnvOrKoanf("CALIBRATION_PATH", k, "calibration_path"),
		TrendingIntervalMinutes: trendingInterval,
		SerendipityEnabled:      serendipityEnabled,
	}

	// Validate and collect errors
	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first non-empty value found, otherwise the koanf value, or default.
func getEnvOrDefaultMulti(envKeys []string, koanfVal string, defaultVal string) string {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault returns the environment variable as int if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, ErrInvalidInterval)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvIntOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first valid integer value found, otherwise the koanf value, or default.
// Returns an error if any environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefaultMulti(envKeys []string, koanfVal int, defaultVal int) (int, error) {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				return 0, fmt.Errorf("%s must be a valid integer: %w", key, ErrInvalidPort)
			}
			return i, nil
		}
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// Validate checks that all required configuration values are present.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, ErrMissingDatabaseURL)
	}
	if c.PollIntervalMinutes <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval_minutes: %w", ErrInvalidInterval))
	}
	if c.TrendingIntervalMinutes <= 0 {
		errs = append(errs, fmt.Errorf("trending_interval_minutes: %w", ErrInvalidInterval))
	}

	return errs
}

// LogSummary returns a summary of the configuration suitable for logging.
// Connection strings are masked to prevent accidental credential exposure.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                      fmt.Sprintf("%d", c.Port),
		"env":                       c.Env,
		"database_url":              maskURL(c.DatabaseURL),
		"redis_url":                 maskURL(c.RedisURL),
		"firehose_url":              c.FirehoseURL,
		"poll_url":                  c.PollURL,
		"poll_interval_minutes":     fmt.Sprintf("%d", c.PollIntervalMinutes),
		"calibration_path":          c.CalibrationPath,
		"trending_interval_minutes": fmt.Sprintf("%d", c.TrendingIntervalMinutes),
		"serendipity_enabled":       fmt.Sprintf("%t", c.SerendipityEnabled),
	}
}

// maskSecret masks a secret value, showing only the first 4 characters followed by ****
// If the secret is shorter than 8 characters, it's fully masked.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}

// maskURL masks the password in a connection URL.
// Supports postgres://, postgresql://, and redis:// schemes.
func maskURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	// Look for password pattern: user:password@host
	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return maskSecret(s)
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.Index(rest, "@")
	if atIndex == -1 {
		return s // No credentials in URL
	}

	colonIndex := strings.Index(rest[:atIndex], ":")
	if colonIndex == -1 {
		return s // No password (only username)
	}

	// Reconstruct URL with masked password
	scheme := s[:schemeEnd+3]
	user := rest[:colonIndex]
	hostAndPath := rest[atIndex:]

	return scheme + user + ":****" + hostAndPath
}
