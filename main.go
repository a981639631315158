package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"market-chat/internal/cache"
	"market-chat/internal/chat"
	"market-chat/internal/config"
	"market-chat/internal/db"
	grpcserver "market-chat/internal/grpc"
	"market-chat/internal/handlers"
	"market-chat/internal/identity"
	"market-chat/internal/logging"
	"market-chat/internal/middleware"
	"market-chat/internal/observability"
	"market-chat/internal/rabbitmq"
	"market-chat/internal/repositories"
	"market-chat/internal/telemetry"
	"market-chat/internal/tracing"
)

const serviceName = "market-chat"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("chat service stopped")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, serviceName, cfg.AppEnv, cfg.OTLPEndpoint, logger)
	if err != nil {
		return err
	}

	database, err := db.Connect(ctx, cfg.DBDSN, logger)
	if err != nil {
		return err
	}
	defer database.Close()

	var pairCache cache.Cache = cache.Noop{}
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, conversation pair cache disabled")
		} else {
			pairCache = redisCache
		}
	}
	defer pairCache.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	defer publisher.Close()
	logger.Info().
		Str("mode", rabbitmq.PublisherMode(publisher)).
		Str("reason", rabbitmq.PublisherNoopReason(publisher)).
		Msg("event publisher ready")
	emitter := telemetry.NewEmitter(publisher, serviceName, cfg.AppEnv, logger)

	conversationRepo := repositories.NewConversationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	userRepo := repositories.NewUserRepo(database)

	service := chat.NewService(
		chat.NewResolver(conversationRepo, pairCache, emitter, cfg.StorageTimeout, logger),
		chat.NewStore(messageRepo, emitter, cfg.StorageTimeout, logger),
		chat.NewIndex(conversationRepo, messageRepo, userRepo, cfg.StorageTimeout, logger),
	)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		tracing.Middleware(serviceName),
		observability.HTTPMetricsMiddleware(),
		middleware.RequestLogger(logger),
	)
	router.GET("/health", handlers.HealthHandler(database))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := router.Group("/", middleware.AuthMiddleware(identity.NewProvider(cfg.JWTSecret)))
	handlers.NewChatHandler(service).Register(authed)
	handlers.RegisterDebugRoutes(authed, emitter, cfg.DebugRoutes)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}
	health := grpcserver.NewHealthServer(database, cfg.HealthInterval, logger)
	go health.Watch(ctx)
	go func() {
		if err := health.Serve(lis); err != nil {
			logger.Error().Err(err).Msg("grpc health server stopped")
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("grpc_addr", cfg.GRPCAddr).Msg("chat service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	health.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("tracing shutdown")
	}
	return nil
}
