package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/autoecole/enrollment-service/internal/auth"
	"github.com/autoecole/enrollment-service/internal/config"
	"github.com/autoecole/enrollment-service/internal/events"
	"github.com/autoecole/enrollment-service/internal/handlers"
	"github.com/autoecole/enrollment-service/internal/metrics"
	"github.com/autoecole/enrollment-service/internal/repositories"
	"github.com/autoecole/enrollment-service/internal/repositories/memory"
	"github.com/autoecole/enrollment-service/internal/repositories/postgres"
	"github.com/autoecole/enrollment-service/internal/services"
	"github.com/autoecole/enrollment-service/internal/storage"
	"github.com/autoecole/enrollment-service/internal/utils"
	"github.com/autoecole/enrollment-service/internal/validator"
	"github.com/autoecole/enrollment-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(slogLogger)
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize repositories
	repoManager, err := newRepositoryManager(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	repo := repoManager.GetRepository()

	// Uploaded payloads
	blobs, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("Failed to initialize blob store: %v", err)
	}

	// Event bus
	publisher, subscriber, err := newEventBus(cfg, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event bus: %v", err)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)

	// Initialize services
	serviceManager := services.NewServiceManager(services.Dependencies{
		Repo:      repo,
		Logger:    slogLogger,
		Validator: validator.New(),
		Publisher: events.NewWatermillPublisher(publisher, cfg.EventsTopic, slogLogger),
		Metrics:   metrics.New(registry),
		Blobs:     blobs,
		Tokens:    tokens,
	})
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Notification inbox consumer
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	consumer := events.NewNotificationConsumer(subscriber, cfg.EventsTopic, serviceManager.Notification(), slogLogger)
	consumerDone, err := consumer.Start(consumerCtx)
	if err != nil {
		log.Fatalf("Failed to start notification consumer: %v", err)
	}

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	handlers.SetupMiddleware(router, logger, cfg.MaxUploadBytes)
	handlers.NewHandlerManager(serviceManager, repo, tokens, registry, logger).SetupRoutes(router)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment, "storage", cfg.StorageDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Closing the publisher ends the in-process subscription too.
	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}
	stopConsumer()
	if err := subscriber.Close(); err != nil {
		logger.Warn("Failed to close subscriber", "error", err)
	}
	select {
	case <-consumerDone:
	case <-ctx.Done():
		logger.Warn("Notification consumer did not stop in time")
	}

	if err := repoManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to close repositories", "error", err)
	}

	logger.Info("Server exited")
}

func newRepositoryManager(cfg *config.Config, logger utils.Logger) (repositories.RepositoryManager, error) {
	if cfg.StorageDriver == "memory" {
		logger.Warn("Using in-memory storage, data is lost on restart")
		return memory.NewRepositoryManager(), nil
	}

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return nil, err
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, caching disabled", "error", err)
			redisClient = nil
		}
	}

	return postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	}), nil
}

// newEventBus uses Kafka when brokers are configured and an in-process
// channel otherwise.
func newEventBus(cfg *config.Config, logger *slog.Logger) (message.Publisher, message.Subscriber, error) {
	if len(cfg.KafkaBrokers) > 0 {
		return events.NewKafkaPubSub(events.KafkaConfig{
			Brokers:       cfg.KafkaBrokers,
			ConsumerGroup: cfg.ConsumerGroup,
		}, logger)
	}
	bus := events.NewGoChannelBus(logger)
	return bus, bus, nil
}
