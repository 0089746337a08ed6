// Package config loads runtime settings from the environment, an optional
// .env file and an optional YAML file named by POS_CONFIG.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every setting the server and the command-line tools read.
type Config struct {
	DatabaseURL       string        `yaml:"database_url"`
	ServerPort        string        `yaml:"server_port"`
	JWTSecret         string        `yaml:"jwt_secret"`
	AllowedOrigins    string        `yaml:"allowed_origins"`
	RedisURL          string        `yaml:"redis_url"`
	DashboardCacheTTL time.Duration `yaml:"dashboard_cache_ttl"`
	ReportTimeout     time.Duration `yaml:"report_timeout"`
	TokenTTL          time.Duration `yaml:"token_ttl"`
	OTLPEndpoint      string        `yaml:"otlp_endpoint"`
	OTelStdout        bool          `yaml:"otel_stdout"`
	ServiceName       string        `yaml:"service_name"`
	SecureCookies     bool          `yaml:"secure_cookies"`
}

// Default returns the configuration used when nothing overrides a key.
func Default() Config {
	return Config{
		ServerPort:        "8080",
		DashboardCacheTTL: 30 * time.Second,
		ReportTimeout:     30 * time.Second,
		TokenTTL:          24 * time.Hour,
		ServiceName:       "pos-backend",
		SecureCookies:     true,
	}
}

// Load builds a Config from defaults, then the YAML file named by POS_CONFIG
// (if any), then environment variables. A .env file in the working directory
// is loaded first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("POS_CONFIG"); path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.loadEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// loadEnv applies environment overrides using getenv, so tests can pass a map lookup.
func (c *Config) loadEnv(getenv func(string) string) error {
	if v := getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := getenv("SERVER_PORT"); v != "" {
		c.ServerPort = v
	}
	if v := getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = v
	}
	if v := getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		c.OTLPEndpoint = v
	}
	if v := getenv("SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}

	flags := []struct {
		key string
		dst *bool
	}{
		{"OTEL_STDOUT", &c.OTelStdout},
		{"SECURE_COOKIES", &c.SecureCookies},
	}
	for _, f := range flags {
		v := getenv(f.key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", f.key, v, err)
		}
		*f.dst = b
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"DASHBOARD_CACHE_TTL", &c.DashboardCacheTTL},
		{"REPORT_TIMEOUT", &c.ReportTimeout},
		{"TOKEN_TTL", &c.TokenTTL},
	}
	for _, d := range durations {
		v := getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.key, v, err)
		}
		*d.dst = parsed
	}
	return nil
}

// RequireServer checks the settings the HTTP server cannot start without.
func (c Config) RequireServer() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}
