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

	// Calendly scheduling provider
	CalendlyAPIToken string
	CalendlyBaseURL  string
	CalendlyURL      string // public booking page used as the fallback path
	CalendlyTimeout  time.Duration

	// LLM providers
	AWSRegion      string
	BedrockModelID string
	GeminiAPIKey   string
	GeminiModelID  string
	MaxToolRounds  int

	// Conversation history
	RedisAddr     string
	RedisPassword string

	// Confirmation email
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CalendlyAPIToken: getEnv("CALENDLY_API_TOKEN", ""),
		CalendlyBaseURL:  getEnv("CALENDLY_BASE_URL", ""),
		CalendlyURL:      getEnv("CALENDLY_URL", ""),
		CalendlyTimeout:  getEnvAsDuration("CALENDLY_TIMEOUT", 10*time.Second),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		BedrockModelID: getEnv("BEDROCK_MODEL_ID", ""),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:  getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),
		MaxToolRounds:  getEnvAsInt("MAX_TOOL_ROUNDS", 5),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Acme Dental"),
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
