package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all configuration for the ExoTrack console and the dev stub.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Backend
	APIBaseURL string
	LogLevel   string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience. MaxRetries defaults to 0: the client never retries on its
	// own, callers decide. Operators can opt in for idempotent GETs.
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache (dashboard stats)
	CacheTTL time.Duration

	// Session persistence
	TokenFile   string
	SessionFile string

	// List views
	PageSize int

	// Observability
	OTLPEndpoint string

	// Stub server
	StubPort     int
	JWTSecret    string
	JWTAccessTTL time.Duration
	SeedDemoData bool
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		APIBaseURL: getEnv("EXOTRACK_API_URL", "http://localhost:3001"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 0),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 10),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		TokenFile:   getEnv("EXOTRACK_TOKEN_FILE", defaultStatePath("token")),
		SessionFile: getEnv("EXOTRACK_SESSION_FILE", defaultStatePath("session.json")),

		PageSize: getEnvInt("EXOTRACK_PAGE_SIZE", 10),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		StubPort:     getEnvInt("PORT", 3001),
		JWTSecret:    getEnv("JWT_SECRET", "exotrack-default-dev-secret-change-me"),
		JWTAccessTTL: getEnvDuration("JWT_ACCESS_TTL", 8*time.Hour),
		SeedDemoData: getEnv("SEED_DEMO_DATA", "false") == "true",
	}
}

// defaultStatePath puts session state under ~/.exotrack, falling back to the
// working directory when the home dir cannot be resolved.
func defaultStatePath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".exotrack", name)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
