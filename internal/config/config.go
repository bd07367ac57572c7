package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Log        LogConfig        `yaml:"log"`
	Pagination PaginationConfig `yaml:"pagination"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig contains bearer token verification settings.
type AuthConfig struct {
	JWTSecret string `yaml:"-"` // env-only, never in YAML
	// Issuer, when set, must match the token's iss claim.
	Issuer string `yaml:"issuer"`
	// Leeway tolerates clock skew on exp/nbf/iat.
	Leeway Duration `yaml:"leeway"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PaginationConfig bounds list page sizes.
type PaginationConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	// StatsInterval is how often store totals are refreshed. Zero disables it.
	StatsInterval Duration `yaml:"stats_interval"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("HYDRO_CONFIG_PATH", "config/hydro.yaml")

	// Missing file is not an error
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and for an explicit config path.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDatabaseConfig resolves only the database settings, with the same
// precedence as Load. Used by CLI commands that never serve HTTP and so
// need no JWT secret.
func LoadDatabaseConfig() (*DatabaseConfig, error) {
	cfg := newDefaults()

	if err := loadYAMLFile(cfg, getEnv("HYDRO_CONFIG_PATH", "config/hydro.yaml")); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)

	return &cfg.Database, nil
}

// DevMode reports whether HYDRO_DEV_MODE is enabled.
func DevMode() bool {
	return os.Getenv("HYDRO_DEV_MODE") == "true"
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Database: DatabaseConfig{
			Path: "data/hydro.db",
		},
		Auth: AuthConfig{
			Leeway: Duration(30 * time.Second),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Pagination: PaginationConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Metrics: MetricsConfig{
			Enabled:       true,
			Path:          "/metrics",
			StatsInterval: Duration(time.Minute),
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("HYDRO_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	setDuration("HYDRO_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	setDuration("HYDRO_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	setDuration("HYDRO_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	// Database
	if v := os.Getenv("HYDRO_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Auth
	if v := os.Getenv("HYDRO_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("HYDRO_JWT_ISSUER"); v != "" {
		cfg.Auth.Issuer = v
	}
	setDuration("HYDRO_JWT_LEEWAY", &cfg.Auth.Leeway)

	// Log
	if v := os.Getenv("HYDRO_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HYDRO_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	// Pagination
	if v := os.Getenv("HYDRO_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pagination.DefaultPageSize = n
		}
	}
	if v := os.Getenv("HYDRO_MAX_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pagination.MaxPageSize = n
		}
	}

	// Metrics
	if v := os.Getenv("HYDRO_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("HYDRO_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}
	setDuration("HYDRO_STATS_INTERVAL", &cfg.Metrics.StatsInterval)
}

func setDuration(key string, dst *Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration(d)
		}
	}
}

// validate checks that required configuration values are set.
// In dev mode (HYDRO_DEV_MODE=true), the JWT secret requirement is skipped.
func (c *Config) validate() error {
	if c.Pagination.DefaultPageSize < 1 {
		return errors.New("pagination.default_page_size must be positive")
	}
	if c.Pagination.MaxPageSize < c.Pagination.DefaultPageSize {
		return errors.New("pagination.max_page_size must be at least default_page_size")
	}

	if DevMode() {
		return nil
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("HYDRO_JWT_SECRET is required")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
