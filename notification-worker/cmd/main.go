package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/notification-worker/internal/app/notification/config"
	"storefront/notification-worker/internal/app/notification/handler"
	"storefront/notification-worker/internal/app/notification/infrastructure/email"
	"storefront/notification-worker/internal/app/notification/processor"
	"storefront/notification-worker/internal/app/notification/service"
	"storefront/pkg/logger"
	"storefront/pkg/tracing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serviceName = "notification-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(serviceName, cfg.LogLevel)

	if logstashAddr := os.Getenv("LOGSTASH_ADDR"); logstashAddr != "" {
		if err := logger.InitLogstash(logstashAddr, serviceName, cfg.LogLevel); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		}
	}

	shutdownTracing, err := tracing.Init(serviceName, cfg.Tracing.JaegerEndpoint)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize tracing")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Error().Err(err).Msg("Failed to flush traces")
		}
	}()

	if cfg.SendGrid.APIKey == "" {
		logger.Warn().Msg("SENDGRID_API_KEY is empty, every send will be rejected by the provider")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	sender := email.NewSendGridClient(cfg.SendGrid.BaseURL, cfg.SendGrid.APIKey, cfg.SendGrid.Sender, cfg.SendGrid.Timeout)
	deliverySvc := service.NewDeliveryService(sender, cfg.SendGrid.Templates)

	consumer := processor.NewKafkaConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.Topic,
		cfg.Kafka.GroupID,
		cfg.Kafka.MinBytes,
		cfg.Kafka.MaxBytes,
		deliverySvc,
	)
	consumer.Start(ctx)

	mux := http.NewServeMux()
	handler.NewHealthCheckHandler(consumer).RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:    cfg.Server.Address(),
		Handler: mux,
	}

	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("Starting health and metrics server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	logger.Info().Str("topic", cfg.Kafka.Topic).Msg("Notification worker is running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down notification worker")

	stop()
	consumer.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server forced to shutdown")
	}

	logger.Info().Msg("Notification worker stopped")
}
