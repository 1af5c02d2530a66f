package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultIPServiceURL  = "https://api.ipify.org?format=json"
	DefaultGeoServiceURL = "https://ipvigilante.com"
	DefaultISSPassURL    = "http://api.open-notify.org/iss-pass.json"
)

type Config struct {
	Upstream UpstreamConfig
	Server   ServerConfig
	Watch    WatchConfig
	Logger   LoggerConfig
}

// UpstreamConfig holds the endpoints of the three lookup services.
type UpstreamConfig struct {
	IPServiceURL  string
	GeoServiceURL string
	GeoAPIKey     string
	ISSPassURL    string
	Timeout       time.Duration
}

type ServerConfig struct {
	Host            string
	Port            int
	RequestTimeout  time.Duration
	RateLimit       int
	RateLimitWindow time.Duration
	CORSOrigins     []string
}

type WatchConfig struct {
	Enabled  bool
	Schedule string
}

type LoggerConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	// A missing .env is fine; the environment is the source of truth.
	_ = godotenv.Load()

	serverPort, err := strconv.Atoi(getEnv("SERVER_PORT", "4622"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT_REQUESTS", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REQUESTS: %w", err)
	}
	watchEnabled, err := strconv.ParseBool(getEnv("WATCH_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid WATCH_ENABLED: %w", err)
	}

	upstreamTimeout, err := time.ParseDuration(getEnv("UPSTREAM_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid UPSTREAM_TIMEOUT: %w", err)
	}
	requestTimeout, err := time.ParseDuration(getEnv("REQUEST_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}
	rateWindow, err := time.ParseDuration(getEnv("RATE_LIMIT_WINDOW", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW: %w", err)
	}

	cfg := &Config{
		Upstream: UpstreamConfig{
			IPServiceURL:  getEnv("IP_SERVICE_URL", DefaultIPServiceURL),
			GeoServiceURL: getEnv("GEO_SERVICE_URL", DefaultGeoServiceURL),
			GeoAPIKey:     os.Getenv("GEO_API_KEY"),
			ISSPassURL:    getEnv("ISS_PASS_URL", DefaultISSPassURL),
			Timeout:       upstreamTimeout,
		},
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            serverPort,
			RequestTimeout:  requestTimeout,
			RateLimit:       rateLimit,
			RateLimitWindow: rateWindow,
			CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		},
		Watch: WatchConfig{
			Enabled:  watchEnabled,
			Schedule: getEnv("WATCH_SCHEDULE", "*/30 * * * *"),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required settings are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Upstream.IPServiceURL == "" {
		errs = append(errs, "IP_SERVICE_URL is required")
	}
	if c.Upstream.GeoServiceURL == "" {
		errs = append(errs, "GEO_SERVICE_URL is required")
	}
	if c.Upstream.ISSPassURL == "" {
		errs = append(errs, "ISS_PASS_URL is required")
	}
	if c.Upstream.Timeout <= 0 {
		errs = append(errs, fmt.Sprintf("UPSTREAM_TIMEOUT must be positive, got %s", c.Upstream.Timeout))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("REQUEST_TIMEOUT must be positive, got %s", c.Server.RequestTimeout))
	}
	if c.Server.RateLimit <= 0 {
		errs = append(errs, fmt.Sprintf("RATE_LIMIT_REQUESTS must be positive, got %d", c.Server.RateLimit))
	}
	if c.Watch.Enabled && c.Watch.Schedule == "" {
		errs = append(errs, "WATCH_SCHEDULE is required when WATCH_ENABLED is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
