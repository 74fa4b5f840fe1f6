/**
 * @description
 * Configuration loader for the Glimpse backend.
 * Reads environment variables (optionally from a .env file), applies defaults and validates.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files
 * - standard "os": For reading env vars
 *
 * @notes
 * - Fails fast if DATABASE_URL or JWT_SECRET is missing outside of test mode.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	DB       DBConfig
	Redis    RedisConfig
	Scryfall ScryfallConfig
	Auth     AuthConfig
	Mail     MailConfig
	Worker   WorkerConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port        string
	Env         string // "development", "staging", "production" or "test"
	FrontendURL string // Base URL magic links point at
	CORSOrigins string
}

// DBConfig holds PostgreSQL settings
type DBConfig struct {
	URL         string
	AutoMigrate bool
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	URL string
}

// ScryfallConfig holds the card data API settings
type ScryfallConfig struct {
	BaseURL         string
	RequestInterval time.Duration // Minimum spacing between upstream calls
	CacheTTL        time.Duration // How long a priced card stays in Redis
}

// AuthConfig holds JWT and magic-link settings
type AuthConfig struct {
	JWTSecret    string
	JWTTTL       time.Duration
	MagicLinkTTL time.Duration
}

// MailConfig holds SMTP settings; an empty Host logs links instead of sending them
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// WorkerConfig holds background refresh settings
type WorkerConfig struct {
	RefreshInterval time.Duration
	StaleAfter      time.Duration
	MetricsAddr     string // Empty disables the worker's /metrics listener
}

// Load reads .env file and populates the Config struct
func Load() (*Config, error) {
	// Missing .env is fine, env vars may be injected directly
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Env:         getEnv("GO_ENV", "development"),
			FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:4200"), "/"),
			CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:4200"),
		},
		DB: DBConfig{
			URL:         getEnv("DATABASE_URL", ""),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Scryfall: ScryfallConfig{
			BaseURL:         strings.TrimRight(getEnv("SCRYFALL_URL", "https://api.scryfall.com"), "/"),
			RequestInterval: getEnvAsDuration("SCRYFALL_REQUEST_INTERVAL", 100*time.Millisecond),
			CacheTTL:        getEnvAsDuration("CARD_CACHE_TTL", 24*time.Hour),
		},
		Auth: AuthConfig{
			JWTSecret:    sanitizeCredential(getEnv("JWT_SECRET", "")),
			JWTTTL:       getEnvAsDuration("JWT_TTL", 7*24*time.Hour),
			MagicLinkTTL: getEnvAsDuration("MAGIC_LINK_TTL", 15*time.Minute),
		},
		Mail: MailConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: sanitizeCredential(getEnv("SMTP_PASSWORD", "")),
			From:     getEnv("MAIL_FROM", "Glimpse <no-reply@localhost>"),
		},
		Worker: WorkerConfig{
			RefreshInterval: getEnvAsDuration("WORKER_REFRESH_INTERVAL", time.Hour),
			StaleAfter:      getEnvAsDuration("WORKER_STALE_AFTER", 24*time.Hour),
			MetricsAddr:     getEnv("WORKER_METRICS_ADDR", ":9091"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks for required variables
func validate(cfg *Config) error {
	// Durations are checked in every environment; a zero ticker interval panics
	if cfg.Worker.RefreshInterval <= 0 {
		return fmt.Errorf("WORKER_REFRESH_INTERVAL must be positive")
	}
	if cfg.Worker.StaleAfter < 0 {
		return fmt.Errorf("WORKER_STALE_AFTER must not be negative")
	}
	if cfg.Auth.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if cfg.Auth.MagicLinkTTL <= 0 {
		return fmt.Errorf("MAGIC_LINK_TTL must be positive")
	}
	if cfg.Scryfall.RequestInterval < 0 {
		return fmt.Errorf("SCRYFALL_REQUEST_INTERVAL must not be negative")
	}

	if cfg.Server.Env == "test" {
		return nil
	}
	if cfg.DB.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Mail.Host == "" {
		fmt.Println("Warning: SMTP_HOST is empty. Magic links will be logged instead of emailed.")
	}
	return nil
}

// Helper to get env var with default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func sanitizeCredential(value string) string {
	trimmed := strings.TrimSpace(value)
	return strings.Trim(trimmed, "\"")
}

// Helper to get env var as int
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

// Accepts Go durations ("150ms", "24h")
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}
