package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Upstream data sources.
	SocrataBaseURL  string
	SocrataAppToken string
	USNOBaseURL     string
	FetchTimeout    time.Duration

	// Resilience tuning, shared by both fetchers.
	MaxRetries       int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	FailureThreshold int
	RecoveryTimeout  time.Duration
	RateLimitMax     int
	RateLimitWindow  time.Duration
	CrimeCacheTTL    time.Duration
	MoonCacheTTL     time.Duration

	// Analysis tuning.
	AlignMaxTimeDiff     time.Duration
	CorrelateMatchWindow time.Duration
	MaxGapDays           int
	MinCoveragePercent   float64

	// Validated-record sink (insert-only persistence boundary).
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	retryBase, err := parseDuration("RETRY_BASE_DELAY", "1s")
	if err != nil {
		return nil, err
	}
	retryMax, err := parseDuration("RETRY_MAX_DELAY", "16s")
	if err != nil {
		return nil, err
	}
	recoveryTimeout, err := parseDuration("BREAKER_RECOVERY_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	rateWindow, err := parseDuration("RATE_LIMIT_WINDOW", "1m")
	if err != nil {
		return nil, err
	}
	crimeTTL, err := parseDuration("CRIME_CACHE_TTL", "15m")
	if err != nil {
		return nil, err
	}
	moonTTL, err := parseDuration("MOON_CACHE_TTL", "6h")
	if err != nil {
		return nil, err
	}
	alignWindow, err := parseDuration("ALIGN_MAX_TIME_DIFF", "12h")
	if err != nil {
		return nil, err
	}
	matchWindow, err := parseDuration("CORRELATE_MATCH_WINDOW", "24h")
	if err != nil {
		return nil, err
	}

	maxRetries, err := parseInt("MAX_RETRIES", 5)
	if err != nil {
		return nil, err
	}
	failureThreshold, err := parseInt("BREAKER_FAILURE_THRESHOLD", 5)
	if err != nil {
		return nil, err
	}
	rateLimitMax, err := parseInt("RATE_LIMIT_MAX_REQUESTS", 60)
	if err != nil {
		return nil, err
	}
	maxGapDays, err := parseInt("MAX_GAP_DAYS", 7)
	if err != nil {
		return nil, err
	}
	minCoverage, err := parseFloat("MIN_COVERAGE_PERCENT", 80)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SocrataBaseURL:  envOrDefault("SOCRATA_BASE_URL", "https://data.cityofchicago.org/resource/crimes.json"),
		SocrataAppToken: os.Getenv("SOCRATA_APP_TOKEN"),
		USNOBaseURL:     envOrDefault("USNO_BASE_URL", "https://aa.usno.navy.mil/api/moon/phases"),
		FetchTimeout:    fetchTimeout,

		MaxRetries:       maxRetries,
		RetryBaseDelay:   retryBase,
		RetryMaxDelay:    retryMax,
		FailureThreshold: failureThreshold,
		RecoveryTimeout:  recoveryTimeout,
		RateLimitMax:     rateLimitMax,
		RateLimitWindow:  rateWindow,
		CrimeCacheTTL:    crimeTTL,
		MoonCacheTTL:     moonTTL,

		AlignMaxTimeDiff:     alignWindow,
		CorrelateMatchWindow: matchWindow,
		MaxGapDays:           maxGapDays,
		MinCoveragePercent:   minCoverage,

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "validated-lunar-crime-records"),
	}

	if cfg.SocrataBaseURL == "" {
		return nil, errors.New("SOCRATA_BASE_URL is required")
	}
	if cfg.USNOBaseURL == "" {
		return nil, errors.New("USNO_BASE_URL is required")
	}
	if cfg.RetryBaseDelay > cfg.RetryMaxDelay {
		return nil, errors.New("RETRY_BASE_DELAY must not exceed RETRY_MAX_DELAY")
	}
	if cfg.MinCoveragePercent <= 0 || cfg.MinCoveragePercent > 100 {
		return nil, errors.New("MIN_COVERAGE_PERCENT must be in (0,100]")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return f, nil
}

// parseBrokers splits a comma-separated broker list, dropping empties.
func parseBrokers(s string) []string {
	var brokers []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			brokers = append(brokers, part)
		}
	}
	return brokers
}
