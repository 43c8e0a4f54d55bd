package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryBaseDelay)
	assert.Equal(t, 16*time.Second, cfg.RetryMaxDelay)
	assert.Equal(t, 5, cfg.FailureThreshold)
	assert.Equal(t, 30*time.Second, cfg.RecoveryTimeout)
	assert.Equal(t, 60, cfg.RateLimitMax)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)

	assert.Equal(t, 12*time.Hour, cfg.AlignMaxTimeDiff)
	assert.Equal(t, 24*time.Hour, cfg.CorrelateMatchWindow)
	assert.Equal(t, 7, cfg.MaxGapDays)
	assert.Equal(t, 80.0, cfg.MinCoveragePercent)

	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MAX_RETRIES", "3")
	t.Setenv("RETRY_BASE_DELAY", "500ms")
	t.Setenv("RETRY_MAX_DELAY", "8s")
	t.Setenv("MIN_COVERAGE_PERCENT", "65.5")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")
	t.Setenv("SOCRATA_APP_TOKEN", "tok")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryBaseDelay)
	assert.Equal(t, 8*time.Second, cfg.RetryMaxDelay)
	assert.Equal(t, 65.5, cfg.MinCoveragePercent)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "tok", cfg.SocrataAppToken)
}

func TestLoadValidation(t *testing.T) {
	t.Run("malformed duration", func(t *testing.T) {
		t.Setenv("FETCH_TIMEOUT", "not-a-duration")
		_, err := Load()
		assert.ErrorContains(t, err, "FETCH_TIMEOUT")
	})

	t.Run("negative duration", func(t *testing.T) {
		t.Setenv("RETRY_BASE_DELAY", "-1s")
		_, err := Load()
		assert.ErrorContains(t, err, "RETRY_BASE_DELAY")
	})

	t.Run("malformed int", func(t *testing.T) {
		t.Setenv("MAX_RETRIES", "five")
		_, err := Load()
		assert.ErrorContains(t, err, "MAX_RETRIES")
	})

	t.Run("non positive int", func(t *testing.T) {
		t.Setenv("BREAKER_FAILURE_THRESHOLD", "0")
		_, err := Load()
		assert.ErrorContains(t, err, "BREAKER_FAILURE_THRESHOLD")
	})

	t.Run("base delay above max delay", func(t *testing.T) {
		t.Setenv("RETRY_BASE_DELAY", "30s")
		t.Setenv("RETRY_MAX_DELAY", "10s")
		_, err := Load()
		assert.ErrorContains(t, err, "RETRY_BASE_DELAY")
	})

	t.Run("coverage percent out of range", func(t *testing.T) {
		t.Setenv("MIN_COVERAGE_PERCENT", "150")
		_, err := Load()
		assert.ErrorContains(t, err, "MIN_COVERAGE_PERCENT")
	})

	t.Run("kafka enabled without brokers", func(t *testing.T) {
		t.Setenv("KAFKA_ENABLED", "true")
		t.Setenv("KAFKA_BROKERS", " , ")
		_, err := Load()
		assert.ErrorContains(t, err, "KAFKA_BROKERS")
	})
}
