package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env      string // "development", "production", etc.
	LogLevel string

	// Server
	ServerAddr   string
	BaseURL      string
	CORSOrigins  string // Comma-separated allowed origins
	RateLimitMax int    // requests per minute per IP

	// Storage
	StoreBackend string // "postgres" or "memory"
	DatabaseURL  string
	RedisURL     string // rate limiter storage; in-process when empty

	// Admin auth
	AdminToken   string
	OIDCIssuer   string
	OIDCClientID string

	// Ingestion
	NATSURL          string
	NATSRouteSubject string

	// Routing
	SweepInterval time.Duration // 0 disables the pending-tweet sweep
	SweepLimit    int

	// Seeding
	SeedFile    string
	SeedOnStart bool
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first if present; variables
// already set in the environment take precedence.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	return &Config{
		Env:              getEnv("ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		ServerAddr:       getEnv("SERVER_ADDR", ":3000"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:3000"),
		CORSOrigins:      getEnv("CORS_ORIGINS", ""),
		RateLimitMax:     getEnvInt("RATE_LIMIT_MAX", 100),
		StoreBackend:     strings.ToLower(getEnv("STORE_BACKEND", StorePostgres)),
		DatabaseURL:      getEnv("DATABASE_URL", "postgres://localhost:5432/tweetrouter?sslmode=disable"),
		RedisURL:         getEnv("REDIS_URL", ""),
		AdminToken:       getEnv("ADMIN_TOKEN", ""),
		OIDCIssuer:       getEnv("OIDC_ISSUER", ""),
		OIDCClientID:     getEnv("OIDC_CLIENT_ID", ""),
		NATSURL:          getEnv("NATS_URL", ""),
		NATSRouteSubject: getEnv("NATS_ROUTE_SUBJECT", "tweets.route"),
		SweepInterval:    getEnvDuration("ROUTER_SWEEP_INTERVAL", 0),
		SweepLimit:       getEnvInt("ROUTER_SWEEP_LIMIT", 100),
		SeedFile:         getEnv("SEED_FILE", "seed_rules.yaml"),
		SeedOnStart:      getEnvBool("SEED_ON_START", false),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return value
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// UseMemoryStore reports whether the in-process store is selected.
func (c *Config) UseMemoryStore() bool {
	return c.StoreBackend == StoreMemory
}

// AdminAuthEnabled reports whether admin routes require credentials.
func (c *Config) AdminAuthEnabled() bool {
	return c.OIDCIssuer != "" || c.AdminToken != ""
}
