// Package config loads application configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Module provides Config to the fx graph.
var Module = fx.Module("config",
	fx.Provide(Load),
)

// DatabaseDriver selects the gorm dialector.
type DatabaseDriver string

const (
	DatabaseDriverPostgres DatabaseDriver = "postgres"
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
)

// Bootstrap controls first-run seeding.
type Bootstrap struct {
	EnsureDefaultOrgAndOwner bool
	OwnerEmail               string
	OwnerPassword            string
}

// Config carries every runtime setting. Values come from environment
// variables; a .env file is honored outside production.
type Config struct {
	Environment string
	HTTPAddr    string

	DatabaseDriver       DatabaseDriver
	DatabaseDSN          string
	DatabaseMaxOpenConns int
	DatabaseMaxIdleConns int

	RedisAddr     string
	RedisPassword string
	DashboardTTL  time.Duration

	SessionCookieName string
	SessionTTL        time.Duration
	AdminJWTSecret    string

	StorageEndpoint  string
	StorageRegion    string
	StorageBucket    string
	StorageAccessKey string
	StorageSecretKey string
	StorageSignTTL   time.Duration

	WhatsAppBaseURL string
	WhatsAppToken   string
	EmailBaseURL    string
	EmailAPIKey     string
	EmailFrom       string

	Bootstrap Bootstrap
}

// IsProduction reports whether the app runs with production hardening.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	env := envOr("APP_ENV", "development")
	if !strings.EqualFold(env, "production") {
		// Missing .env is fine; real env vars still win.
		_ = godotenv.Load()
		env = envOr("APP_ENV", env)
	}

	cfg := Config{
		Environment: env,
		HTTPAddr:    envOr("HTTP_ADDR", ":8080"),

		DatabaseDriver:       DatabaseDriver(envOr("DATABASE_DRIVER", string(DatabaseDriverPostgres))),
		DatabaseDSN:          os.Getenv("DATABASE_DSN"),
		DatabaseMaxOpenConns: envIntOr("DATABASE_MAX_OPEN_CONNS", 20),
		DatabaseMaxIdleConns: envIntOr("DATABASE_MAX_IDLE_CONNS", 5),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		DashboardTTL:  envDurationOr("DASHBOARD_CACHE_TTL", 30*time.Second),

		SessionCookieName: envOr("SESSION_COOKIE_NAME", "agency_session"),
		SessionTTL:        envDurationOr("SESSION_TTL", 7*24*time.Hour),
		AdminJWTSecret:    os.Getenv("ADMIN_JWT_SECRET"),

		StorageEndpoint:  os.Getenv("STORAGE_ENDPOINT"),
		StorageRegion:    envOr("STORAGE_REGION", "us-east-1"),
		StorageBucket:    os.Getenv("STORAGE_BUCKET"),
		StorageAccessKey: os.Getenv("STORAGE_ACCESS_KEY"),
		StorageSecretKey: os.Getenv("STORAGE_SECRET_KEY"),
		StorageSignTTL:   envDurationOr("STORAGE_SIGN_TTL", 15*time.Minute),

		WhatsAppBaseURL: os.Getenv("WHATSAPP_BASE_URL"),
		WhatsAppToken:   os.Getenv("WHATSAPP_TOKEN"),
		EmailBaseURL:    os.Getenv("EMAIL_BASE_URL"),
		EmailAPIKey:     os.Getenv("EMAIL_API_KEY"),
		EmailFrom:       envOr("EMAIL_FROM", "no-reply@localhost"),

		Bootstrap: Bootstrap{
			EnsureDefaultOrgAndOwner: envBoolOr("BOOTSTRAP_DEFAULT_ORG", true),
			OwnerEmail:               envOr("BOOTSTRAP_OWNER_EMAIL", "owner@localhost"),
			OwnerPassword:            envOr("BOOTSTRAP_OWNER_PASSWORD", "owner"),
		},
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
