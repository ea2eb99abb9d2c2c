// Command gateway runs the parking aggregation gateway: it locates the
// nearest facility for a requested point, enriches it with an occupancy
// estimate, and serves the merged result alongside raw passthrough routes
// for the two upstreams and the static UI.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"parkpulse/internal/adapter/httpadapter"
	kafkaadapter "parkpulse/internal/adapter/kafka"
	"parkpulse/internal/adapter/occupancyapi"
	"parkpulse/internal/adapter/parkingapi"
	"parkpulse/internal/config"
	"parkpulse/internal/gateway"
	"parkpulse/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	locator := parkingapi.NewClient(cfg.NearestBaseURL, cfg.UpstreamTimeout, logger, metrics)
	estimator := occupancyapi.NewClient(cfg.OccupancyBaseURL, cfg.UpstreamTimeout, logger, metrics)

	// Assessment event sink (feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	var events gateway.EventSink
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		events = publisher
		logger.Info("assessment events enabled", "topic", cfg.KafkaAssessmentsTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("assessment events disabled")
	}

	gw := gateway.New(locator, estimator, events, logger, metrics)

	srv := httpadapter.NewServer(httpadapter.Options{
		Addr:             cfg.HTTPAddr,
		NearestBaseURL:   cfg.NearestBaseURL,
		OccupancyBaseURL: cfg.OccupancyBaseURL,
		StaticDir:        cfg.StaticDir,
		UpstreamTimeout:  cfg.UpstreamTimeout,
	}, gw, gw, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
