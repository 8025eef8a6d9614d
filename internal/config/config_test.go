package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":3001", cfg.HTTPAddr)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "trading-platform", cfg.KafkaClientID)
	assert.Equal(t, 100, cfg.RateLimitMax)
	assert.Equal(t, 900, cfg.RateLimitWindow)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("NODE_ENV", "production")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")
	t.Setenv("RATE_LIMIT_MAX", "10")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers, "broker list is trimmed")
	assert.Equal(t, 10, cfg.RateLimitMax)
}

func TestLoadConfigRejectsBadInt(t *testing.T) {
	t.Setenv("RATE_LIMIT_MAX", "lots")

	_, err := LoadConfig()
	assert.Error(t, err)
}
