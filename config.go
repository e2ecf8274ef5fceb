package main

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// Config is everything the server reads from the environment at startup.
type Config struct {
	Env  string
	Port string

	DBDriver  string
	DBPath    string
	DBHost    string
	DBUser    string
	DBPass    string
	DBName    string
	DBPort    string
	DBSSLMode string

	JWTSecret string
	TokenTTL  time.Duration

	AllowedOrigins []string
	TrustedProxies []string
	SeedDemo       bool

	AuthRatePerMinute int
	AuthRateBurst     int

	LogLevel slog.Level
}

func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found, using system environment variables")
	}
}

// LoadConfig builds a Config from environment variables. It does not read .env;
// call LoadEnv first.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Env:       getEnvOrDefault("APP_ENV", "development"),
		Port:      getEnvOrDefault("PORT", "5000"),
		DBDriver:  strings.ToLower(getEnvOrDefault("DB_DRIVER", DriverSQLite)),
		DBPath:    getEnvOrDefault("DB_PATH", "disaster_relief.db"),
		DBHost:    os.Getenv("DB_HOST"),
		DBUser:    os.Getenv("DB_USER"),
		DBPass:    os.Getenv("DB_PASS"),
		DBName:    os.Getenv("DB_NAME"),
		DBPort:    getEnvOrDefault("DB_PORT", "5432"),
		DBSSLMode: getEnvOrDefault("DB_SSLMODE", "disable"),
		JWTSecret: os.Getenv("JWT_SECRET"),
	}

	var err error

	if cfg.TokenTTL, err = time.ParseDuration(getEnvOrDefault("TOKEN_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive")
	}

	if cfg.SeedDemo, err = strconv.ParseBool(getEnvOrDefault("SEED_DEMO", "false")); err != nil {
		return nil, fmt.Errorf("invalid SEED_DEMO: %w", err)
	}

	if cfg.AuthRatePerMinute, err = strconv.Atoi(getEnvOrDefault("AUTH_RATE_PER_MINUTE", "20")); err != nil || cfg.AuthRatePerMinute <= 0 {
		return nil, fmt.Errorf("AUTH_RATE_PER_MINUTE must be a positive integer")
	}
	if cfg.AuthRateBurst, err = strconv.Atoi(getEnvOrDefault("AUTH_RATE_BURST", "5")); err != nil || cfg.AuthRateBurst <= 0 {
		return nil, fmt.Errorf("AUTH_RATE_BURST must be a positive integer")
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnvOrDefault("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	cfg.AllowedOrigins = append([]string{}, defaultOrigins...)
	if clientURL := os.Getenv("CLIENT_URL"); clientURL != "" {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, strings.TrimSuffix(strings.TrimSpace(clientURL), "/"))
	}
	cfg.AllowedOrigins = append(cfg.AllowedOrigins, splitList(os.Getenv("ALLOWED_ORIGINS"))...)
	for _, origin := range cfg.AllowedOrigins {
		if err := validateOrigin(origin); err != nil {
			return nil, err
		}
	}

	// empty means no proxy is trusted and the peer address is the client IP
	cfg.TrustedProxies = splitList(os.Getenv("TRUSTED_PROXIES"))
	for _, proxy := range cfg.TrustedProxies {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: must be an IP or CIDR", proxy)
			}
		}
	}

	switch cfg.DBDriver {
	case DriverSQLite:
	case DriverPostgres:
		if cfg.DBHost == "" || cfg.DBUser == "" || cfg.DBName == "" {
			return nil, fmt.Errorf("DATABASE ENV MISSING: DB_HOST, DB_USER and DB_NAME are required for postgres")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	if cfg.JWTSecret == "" {
		if cfg.Env != "development" {
			return nil, fmt.Errorf("JWT_SECRET is missing")
		}
		cfg.JWTSecret = "defaultsecret"
		slog.Warn("JWT_SECRET not set, using development default")
	}

	return cfg, nil
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPass, c.DBName, c.DBPort, c.DBSSLMode,
	)
}

// validateOrigin accepts an exact http(s) origin: scheme and host, no wildcard or path.
func validateOrigin(origin string) error {
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || strings.Contains(origin, "*") {
		return fmt.Errorf("invalid origin %q: must look like http://host[:port] or https://host[:port]", origin)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("invalid origin %q: must not contain a path or query", origin)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
