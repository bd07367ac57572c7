package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

// Helper to blank all config-related env vars for the duration of a test
func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"HYDRO_PORT",
		"HYDRO_READ_TIMEOUT",
		"HYDRO_WRITE_TIMEOUT",
		"HYDRO_SHUTDOWN_TIMEOUT",
		"HYDRO_DB_PATH",
		"HYDRO_JWT_SECRET",
		"HYDRO_JWT_ISSUER",
		"HYDRO_JWT_LEEWAY",
		"HYDRO_LOG_LEVEL",
		"HYDRO_LOG_FORMAT",
		"HYDRO_PAGE_SIZE",
		"HYDRO_MAX_PAGE_SIZE",
		"HYDRO_METRICS_ENABLED",
		"HYDRO_METRICS_PATH",
		"HYDRO_STATS_INTERVAL",
		"HYDRO_CONFIG_PATH",
		"HYDRO_DEV_MODE",
	}
	for _, v := range envVars {
		t.Setenv(v, "")
	}
}

func setDevModeEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HYDRO_DEV_MODE", "true")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hydro.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

// dur converts Duration to time.Duration for comparison
func dur(d Duration) time.Duration {
	return time.Duration(d)
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	setDevModeEnv(t)
	t.Setenv("HYDRO_CONFIG_PATH", "/nonexistent/hydro.yaml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if dur(cfg.Server.ReadTimeout) != 30*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 30s", cfg.Server.ReadTimeout)
	}
	if dur(cfg.Server.ShutdownTimeout) != 15*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 15s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Database.Path != "data/hydro.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "data/hydro.db")
	}
	if dur(cfg.Auth.Leeway) != 30*time.Second {
		t.Errorf("Auth.Leeway = %v, want 30s", cfg.Auth.Leeway)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v, want info/json", cfg.Log)
	}
	if cfg.Pagination.DefaultPageSize != 20 || cfg.Pagination.MaxPageSize != 100 {
		t.Errorf("Pagination = %+v, want 20/100", cfg.Pagination)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics = %+v, want enabled at /metrics", cfg.Metrics)
	}
	if dur(cfg.Metrics.StatsInterval) != time.Minute {
		t.Errorf("Metrics.StatsInterval = %v, want 1m", cfg.Metrics.StatsInterval)
	}
}

func TestLoad_ValidationFailsWithoutJWTSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("HYDRO_CONFIG_PATH", "/nonexistent/hydro.yaml")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error when HYDRO_JWT_SECRET missing, got nil")
	}
	if !strings.Contains(err.Error(), "HYDRO_JWT_SECRET") {
		t.Errorf("error = %v, want mention of HYDRO_JWT_SECRET", err)
	}
}

func TestLoad_ValidationPassesWithJWTSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("HYDRO_CONFIG_PATH", "/nonexistent/hydro.yaml")
	t.Setenv("HYDRO_JWT_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Auth.JWTSecret != "s3cret" {
		t.Errorf("Auth.JWTSecret = %q, want %q", cfg.Auth.JWTSecret, "s3cret")
	}
}

func TestLoad_InvalidPagination(t *testing.T) {
	clearEnv(t)
	setDevModeEnv(t)
	t.Setenv("HYDRO_CONFIG_PATH", "/nonexistent/hydro.yaml")
	t.Setenv("HYDRO_PAGE_SIZE", "50")
	t.Setenv("HYDRO_MAX_PAGE_SIZE", "10")

	if _, err := Load(); err == nil {
		t.Error("Load() expected error when max page size is below default")
	}
}

func TestLoad_EmptyEnvVarDoesNotOverride(t *testing.T) {
	clearEnv(t)
	setDevModeEnv(t)
	t.Setenv("HYDRO_CONFIG_PATH", "/nonexistent/hydro.yaml")
	t.Setenv("HYDRO_PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080 (default)", cfg.Server.Port)
	}
}

func TestLoadFromFile_ValidYAML(t *testing.T) {
	clearEnv(t)
	setDevModeEnv(t)

	configPath := writeConfig(t, `
server:
  port: 9999
  read_timeout: 60s
database:
  path: /yaml/path.db
auth:
  issuer: https://auth.example.com
  leeway: 5s
pagination:
  default_page_size: 10
  max_page_size: 50
metrics:
  enabled: false
`)

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if dur(cfg.Server.ReadTimeout) != 60*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 60s", cfg.Server.ReadTimeout)
	}
	if cfg.Database.Path != "/yaml/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/yaml/path.db")
	}
	if cfg.Auth.Issuer != "https://auth.example.com" || dur(cfg.Auth.Leeway) != 5*time.Second {
		t.Errorf("Auth = %+v", cfg.Auth)
	}
	if cfg.Pagination.DefaultPageSize != 10 || cfg.Pagination.MaxPageSize != 50 {
		t.Errorf("Pagination = %+v, want 10/50", cfg.Pagination)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want false from YAML")
	}
	// Unset YAML keys keep their defaults
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want default", cfg.Metrics.Path)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	setDevModeEnv(t)

	configPath := writeConfig(t, `
server:
  port: 9000
log:
  level: warn
`)
	t.Setenv("HYDRO_CONFIG_PATH", configPath)
	t.Setenv("HYDRO_PORT", "8888")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8888 {
		t.Errorf("Server.Port = %d, want 8888 (env override)", cfg.Server.Port)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want %q (from YAML)", cfg.Log.Level, "warn")
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	clearEnv(t)
	setDevModeEnv(t)

	configPath := writeConfig(t, `
server:
  port: not_a_number
  this is invalid yaml [
`)

	if _, err := LoadFromFile(configPath); err == nil {
		t.Error("LoadFromFile() expected error for invalid YAML, got nil")
	}
}

func TestLoadFromFile_InvalidDuration(t *testing.T) {
	clearEnv(t)
	setDevModeEnv(t)

	configPath := writeConfig(t, `
server:
  read_timeout: not_a_duration
`)

	if _, err := LoadFromFile(configPath); err == nil {
		t.Error("LoadFromFile() expected error for invalid duration, got nil")
	}
}

func TestConfig_SecretsNotInYAML(t *testing.T) {
	cfg := &Config{Auth: AuthConfig{JWTSecret: "jwt-signing-secret", Issuer: "iss"}}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}

	if strings.Contains(string(data), "jwt-signing-secret") {
		t.Errorf("YAML contains Auth.JWTSecret: %s", data)
	}
}

func TestLoad_AllEnvVarMappings(t *testing.T) {
	clearEnv(t)
	setDevModeEnv(t)
	t.Setenv("HYDRO_CONFIG_PATH", "/nonexistent/hydro.yaml")

	t.Setenv("HYDRO_PORT", "3000")
	t.Setenv("HYDRO_READ_TIMEOUT", "45s")
	t.Setenv("HYDRO_WRITE_TIMEOUT", "46s")
	t.Setenv("HYDRO_SHUTDOWN_TIMEOUT", "20s")
	t.Setenv("HYDRO_DB_PATH", "/env/db.sqlite")
	t.Setenv("HYDRO_JWT_SECRET", "env-secret")
	t.Setenv("HYDRO_JWT_ISSUER", "env-issuer")
	t.Setenv("HYDRO_JWT_LEEWAY", "1m")
	t.Setenv("HYDRO_LOG_LEVEL", "debug")
	t.Setenv("HYDRO_LOG_FORMAT", "text")
	t.Setenv("HYDRO_PAGE_SIZE", "25")
	t.Setenv("HYDRO_MAX_PAGE_SIZE", "250")
	t.Setenv("HYDRO_METRICS_ENABLED", "false")
	t.Setenv("HYDRO_METRICS_PATH", "/internal/metrics")
	t.Setenv("HYDRO_STATS_INTERVAL", "5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"Server.Port", cfg.Server.Port, 3000},
		{"Server.ReadTimeout", dur(cfg.Server.ReadTimeout), 45 * time.Second},
		{"Server.WriteTimeout", dur(cfg.Server.WriteTimeout), 46 * time.Second},
		{"Server.ShutdownTimeout", dur(cfg.Server.ShutdownTimeout), 20 * time.Second},
		{"Database.Path", cfg.Database.Path, "/env/db.sqlite"},
		{"Auth.JWTSecret", cfg.Auth.JWTSecret, "env-secret"},
		{"Auth.Issuer", cfg.Auth.Issuer, "env-issuer"},
		{"Auth.Leeway", dur(cfg.Auth.Leeway), time.Minute},
		{"Log.Level", cfg.Log.Level, "debug"},
		{"Log.Format", cfg.Log.Format, "text"},
		{"Pagination.DefaultPageSize", cfg.Pagination.DefaultPageSize, 25},
		{"Pagination.MaxPageSize", cfg.Pagination.MaxPageSize, 250},
		{"Metrics.Enabled", cfg.Metrics.Enabled, false},
		{"Metrics.Path", cfg.Metrics.Path, "/internal/metrics"},
		{"Metrics.StatsInterval", dur(cfg.Metrics.StatsInterval), 5 * time.Minute},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadDatabaseConfig_NoSecretRequired(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "database:\n  path: /yaml/hydro.db\n")
	t.Setenv("HYDRO_CONFIG_PATH", path)

	db, err := LoadDatabaseConfig()
	if err != nil {
		t.Fatalf("LoadDatabaseConfig() error = %v", err)
	}
	if db.Path != "/yaml/hydro.db" {
		t.Errorf("Path = %q, want /yaml/hydro.db", db.Path)
	}

	t.Setenv("HYDRO_DB_PATH", "/env/hydro.db")
	db, err = LoadDatabaseConfig()
	if err != nil {
		t.Fatalf("LoadDatabaseConfig() error = %v", err)
	}
	if db.Path != "/env/hydro.db" {
		t.Errorf("Path = %q, want /env/hydro.db", db.Path)
	}
}
