package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string

	DatabaseURL string

	UseMemorySessions bool
	RedisAddr         string
	RedisPassword     string
	RedisTLS          bool
	SessionTTL        time.Duration

	// Extraction service (OpenAI-compatible endpoint; defaults target a local
	// Ollama instance).
	LLMBaseURL    string
	LLMAPIKey     string
	LLMModel      string
	LLMMaxTokens  int
	LLMTemperature float32

	// Ambiguous dates like "10 April" resolve to this year.
	DefaultYear int

	// Identity preload source; anonymous capture kicks in when missing.
	ProfilePath string

	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SMTPHost          string
	SMTPPort          string
	SMTPUsername      string
	SMTPPassword      string
	SMTPFromEmail     string
	NotifyRecipient   string
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		UseMemorySessions: getEnvAsBool("USE_MEMORY_SESSIONS", false),
		RedisAddr:         getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisTLS:          getEnvAsBool("REDIS_TLS", false),
		SessionTTL:        getEnvAsDuration("SESSION_TTL", 24*time.Hour),

		LLMBaseURL:     getEnv("LLM_BASE_URL", "http://localhost:11434/v1"),
		LLMAPIKey:      getEnv("LLM_API_KEY", "ollama"),
		LLMModel:       getEnv("LLM_MODEL", "llama3.2"),
		LLMMaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 600),
		LLMTemperature: 0,

		DefaultYear: getEnvAsInt("DEFAULT_YEAR", 2025),

		ProfilePath: getEnv("PROFILE_PATH", "user_data.json"),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "stub"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Appointment Assistant"),
		SMTPHost:          getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:          getEnv("SMTP_PORT", "587"),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		SMTPFromEmail:     getEnv("SMTP_FROM_EMAIL", ""),
		NotifyRecipient:   getEnv("NOTIFY_RECIPIENT", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
