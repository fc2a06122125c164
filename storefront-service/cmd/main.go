package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/pkg/logger"
	"storefront/pkg/tracing"
	"storefront/storefront-service/internal/app/storefront/config"
	"storefront/storefront-service/internal/app/storefront/handler"
	"storefront/storefront-service/internal/app/storefront/infrastructure/database"
	"storefront/storefront-service/internal/app/storefront/infrastructure/messaging"
	"storefront/storefront-service/internal/app/storefront/processor"
	"storefront/storefront-service/internal/app/storefront/repository"
	"storefront/storefront-service/internal/app/storefront/service"
)

const serviceName = "storefront-service"

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
		} else {
			logger.Info().Str("logstash_addr", logstashAddr).Msg("Connected to Logstash")
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

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// === ХРАНИЛИЩА ===
	mongoClient, err := database.ConnectMongoDB(cfg.MongoDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(ctx); err != nil {
			logger.Error().Err(err).Msg("Error disconnecting from MongoDB")
		}
	}()
	logger.Info().Str("database", cfg.MongoDB.Database).Msg("Connected to MongoDB")
	mongoDB := mongoClient.Database(cfg.MongoDB.Database)

	pgPool, err := database.ConnectPostgres(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pgPool.Close()

	gormDB, err := database.ConnectGorm(cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open stock drift ledger")
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		defer sqlDB.Close()
	}
	logger.Info().Str("database", cfg.Postgres.DBName).Msg("Connected to PostgreSQL")

	redisClient, err := database.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()
	logger.Info().Str("address", cfg.Redis.Address()).Msg("Connected to Redis")

	kafkaProducer := messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer kafkaProducer.Close()
	logger.Info().Str("topic", cfg.Kafka.Topic).Msg("Initialized Kafka producer")

	// === РЕПОЗИТОРИИ ===
	productRepo := repository.NewProductRepository(mongoDB)
	reviewRepo := repository.NewReviewRepository(mongoDB)
	orderRepo := repository.NewOrderRepository(mongoDB)
	taxRepo := repository.NewTaxRepository(mongoDB)
	outboxRepo := repository.NewOutboxRepository(mongoDB)
	userRepo := repository.NewUserRepository(pgPool)
	driftRepo := repository.NewStockDriftRepository(gormDB)
	taxCache := repository.NewTaxCache(redisClient, cfg.Redis.TTL)
	lockRepo := repository.NewLockRepository(redisClient)

	// === СЕРВИСЫ ===
	notificationService := service.NewNotificationService(outboxRepo)
	taxService := service.NewTaxService(taxRepo, taxCache)
	ratingAggregator := service.NewRatingAggregator(productRepo, reviewRepo, userRepo)
	catalogService := service.NewCatalogService(productRepo, reviewRepo)
	orderService := service.NewOrderService(orderRepo, productRepo, userRepo, taxService)
	settlementService := service.NewSettlementService(orderRepo, productRepo, driftRepo, notificationService)
	userService := service.NewUserService(userRepo, reviewRepo, orderRepo, ratingAggregator)
	outboxRelay := service.NewOutboxRelay(outboxRepo, kafkaProducer, lockRepo, int64(cfg.Cron.OutboxBatch), cfg.Cron.OutboxMaxAttempts)
	stockReconciler := service.NewStockReconciler(driftRepo, productRepo, lockRepo)

	// === ФОНОВЫЕ ЗАДАЧИ ===
	cronScheduler := processor.NewCronScheduler(outboxRelay, stockReconciler)
	if err := cronScheduler.Start(ctx, cfg.Cron); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start cron scheduler")
	}
	defer cronScheduler.Stop()

	// === HTTP ===
	authMiddleware := handler.NewAuthMiddleware(cfg.JWT.Secret)
	router := handler.SetupRoutes(handler.Handlers{
		Products: handler.NewProductHandler(catalogService, ratingAggregator),
		Orders:   handler.NewOrderHandler(orderService, settlementService),
		Users:    handler.NewUserHandler(userService),
		Admin:    handler.NewAdminHandler(taxService, notificationService),
	}, authMiddleware)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("Starting Storefront Service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Storefront Service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	stop()

	logger.Info().Msg("Storefront Service stopped gracefully")
}
