package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/lunar-crime-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/lunar-crime-service/internal/adapter/kafka"
	"github.com/couchcryptid/lunar-crime-service/internal/adapter/socrata"
	"github.com/couchcryptid/lunar-crime-service/internal/adapter/usno"
	"github.com/couchcryptid/lunar-crime-service/internal/align"
	"github.com/couchcryptid/lunar-crime-service/internal/analysis"
	"github.com/couchcryptid/lunar-crime-service/internal/config"
	"github.com/couchcryptid/lunar-crime-service/internal/correlate"
	"github.com/couchcryptid/lunar-crime-service/internal/integrity"
	"github.com/couchcryptid/lunar-crime-service/internal/observability"
	"github.com/couchcryptid/lunar-crime-service/internal/resilience"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Each fetcher owns its own resilience instances so one failing
	// upstream never trips the other's breaker or consumes its window.
	retryCfg := resilience.RetryConfig{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  cfg.RetryBaseDelay,
		MaxDelay:   cfg.RetryMaxDelay,
		Jitter:     true,
	}

	crimeClient := socrata.NewClient(cfg.SocrataBaseURL, cfg.SocrataAppToken, cfg.FetchTimeout, logger)
	crimeFetcher := socrata.NewFetcher(
		crimeClient,
		resilience.NewRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow, nil),
		resilience.NewCircuitBreaker("socrata", cfg.FailureThreshold, cfg.RecoveryTimeout, nil, logger),
		resilience.NewRetrier(retryCfg, nil, logger),
		cfg.CrimeCacheTTL,
		logger,
		metrics,
	)

	moonClient := usno.NewClient(cfg.USNOBaseURL, cfg.FetchTimeout, logger)
	moonFetcher := usno.NewFetcher(
		moonClient,
		resilience.NewRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow, nil),
		resilience.NewCircuitBreaker("usno", cfg.FailureThreshold, cfg.RecoveryTimeout, nil, logger),
		resilience.NewRetrier(retryCfg, nil, logger),
		cfg.MoonCacheTTL,
		logger,
		metrics,
	)

	// Record sink is feature-flagged; nil disables persistence.
	var sink analysis.RecordSink
	var kafkaWriter *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		kafkaWriter = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaSinkTopic, logger)
		sink = kafkaWriter
		logger.Info("kafka record sink enabled", "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka record sink disabled")
	}

	svc := analysis.New(
		crimeFetcher,
		moonFetcher,
		sink,
		align.New(cfg.AlignMaxTimeDiff, logger),
		integrity.New(cfg.MaxGapDays, cfg.MinCoveragePercent, logger),
		correlate.New(cfg.CorrelateMatchWindow, 0, 0, logger),
		logger,
		metrics,
	)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
