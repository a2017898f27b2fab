package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Storage
	DBPath string

	// Secrets at rest (base64 key; empty means credential storage is refused)
	DataEncryptionKey string

	// Augmentation (absence of the API key is a valid, expected state)
	GeminiAPIKey  string
	GeminiModel   string
	GeminiTimeout time.Duration

	// Workflow automation
	N8NWebhookURL string
	N8NAPIURL     string
	N8NAPIKey     string

	// Payment link templates ({lead_id},{project_id},{company_name},{payment_method})
	PaymentURLCard     string
	PaymentURLTransfer string
	PaymentURLDefault  string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// Portal sessions
	JWTSecret    string
	JWTAccessTTL time.Duration
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBPath: getEnv("DB_PATH", "data/readiness.db"),

		DataEncryptionKey: getEnv("DATA_ENCRYPTION_KEY", ""),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiTimeout: getEnvDuration("GEMINI_TIMEOUT", 8*time.Second),

		N8NWebhookURL: getEnv("N8N_WEBHOOK_URL", ""),
		N8NAPIURL:     getEnv("N8N_API_URL", ""),
		N8NAPIKey:     getEnv("N8N_API_KEY", ""),

		PaymentURLCard:     getEnv("PAYMENT_URL_CARD", ""),
		PaymentURLTransfer: getEnv("PAYMENT_URL_TRANSFER", ""),
		PaymentURLDefault:  getEnv("PAYMENT_URL_DEFAULT", ""),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		JWTSecret:    getEnv("JWT_SECRET", "readiness-default-dev-secret-change-me"),
		JWTAccessTTL: getEnvDuration("JWT_ACCESS_TTL", 30*time.Minute),
	}
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
