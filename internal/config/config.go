package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds runtime configuration for the trading platform backend.
type Config struct {
	Environment string
	HTTPAddr    string
	FrontendURL string

	RedisURL string

	KafkaBrokers  []string
	KafkaClientID string

	OpenAIAPIKey string

	RateLimitMax    int
	RateLimitWindow int // seconds
}

// IsProduction reports whether the service runs in production mode.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// envOrDefault returns the value of an environment variable or a default.
func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) (int, error) {
	if raw := os.Getenv(key); raw != "" {
		val, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return val, nil
	}

	return def, nil
}

func envCSVOrDefault(key, def string) []string {
	raw := envOrDefault(key, def)
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// LoadConfig loads configuration from environment variables.
// A missing OPENAI_API_KEY is not an error; it switches the AI service
// into fallback-only mode.
func LoadConfig() (Config, error) {
	rateLimitMax, err := envIntOrDefault("RATE_LIMIT_MAX", 100)
	if err != nil {
		return Config{}, err
	}
	rateLimitWindow, err := envIntOrDefault("RATE_LIMIT_WINDOW_SECONDS", 900)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Environment: envOrDefault("NODE_ENV", envOrDefault("APP_ENV", "development")),
		HTTPAddr:    envOrDefault("HTTP_ADDR", ":3001"),
		FrontendURL: envOrDefault("FRONTEND_URL", "http://localhost:3000"),

		RedisURL: envOrDefault("REDIS_URL", "redis://localhost:6379"),

		KafkaBrokers:  envCSVOrDefault("KAFKA_BROKERS", "localhost:9092"),
		KafkaClientID: envOrDefault("KAFKA_CLIENT_ID", "trading-platform"),

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),

		RateLimitMax:    rateLimitMax,
		RateLimitWindow: rateLimitWindow,
	}

	return cfg, nil
}
