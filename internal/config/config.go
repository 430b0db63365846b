package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Gemini text-generation capability
	GeminiAPIKey  string
	GeminiModelID string
	LLMTimeout    time.Duration

	// Durable storage
	HistoryDir       string
	AppointmentsFile string

	// Optional redis-backed context store (used when RedisAddr is set)
	RedisAddr     string
	RedisPassword string
	ContextTTL    time.Duration

	// In-memory context cache expiry
	CleanupMaxAgeDays int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:              getEnv("PORT", "8080"),
		Env:               getEnv("ENV", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:     getEnv("GEMINI_MODEL_ID", "gemini-2.0-flash"),
		LLMTimeout:        getEnvAsDuration("LLM_TIMEOUT", 15*time.Second),
		HistoryDir:        getEnv("HISTORY_DIR", "History"),
		AppointmentsFile:  getEnv("APPOINTMENTS_FILE", "appointments.csv"),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		ContextTTL:        getEnvAsDuration("CONTEXT_TTL", 30*24*time.Hour),
		CleanupMaxAgeDays: getEnvAsInt("CLEANUP_MAX_AGE_DAYS", 7),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
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
