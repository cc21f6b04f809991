package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/platewise/backend/config"
	"github.com/platewise/backend/internal/api"
	"github.com/platewise/backend/internal/apperrors"
	"github.com/platewise/backend/internal/database"
	"github.com/platewise/backend/internal/httpclient"
	"github.com/platewise/backend/internal/queue"
	"github.com/platewise/backend/internal/router"
	"github.com/platewise/backend/internal/server"
	"github.com/platewise/backend/internal/service"
)

func main() {
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	// Sessions and quota counters degrade gracefully without Redis.
	var redisClient *redis.Client
	if rc, err := database.NewRedisClient(cfg, logger); err != nil {
		logger.Warn("continuing without Redis", zap.Error(err))
	} else {
		redisClient = rc
	}

	var photos *service.PhotoStore
	if cfg.S3Bucket != "" {
		if s3cfg, err := config.NewS3Config(context.Background(), cfg); err != nil {
			logger.Warn("continuing without photo archive", zap.Error(err))
		} else {
			photos = service.NewPhotoStore(s3cfg, logger)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sink := apperrors.NewSink(logger)

	// Deferred writes replay automatically once the database is reachable
	// again; the watcher flips the queue's connectivity state.
	writeQueue := queue.New(logger)
	go writeQueue.Watch(ctx, func(ctx context.Context) bool {
		probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return database.HealthCheck(probeCtx, db) == nil
	}, 30*time.Second)

	httpClient := httpclient.New(sink, logger,
		httpclient.WithOfflineProbe(func() bool { return !writeQueue.Online() }))

	authSvc := service.NewAuthService(db, redisClient, cfg.JWTSecret, logger)
	llmSvc := service.NewLLMService(cfg, httpClient, logger)
	visionSvc := service.NewVisionService(cfg, httpClient, photos, logger)
	savedSvc := service.NewSavedRecipeService(db, writeQueue, logger)
	profileSvc := service.NewProfileService(db, logger)

	handler := api.NewHandler(authSvc, llmSvc, visionSvc, savedSvc, profileSvc, sink, db, logger)

	engine := router.New(router.Deps{
		Handler:   handler,
		Validator: authSvc,
		Redis:     redisClient,
		Plans:     profileSvc,
		Limits:    cfg,
		Logger:    logger,
	})

	srv := server.New(cfg.ServerHost+":"+cfg.ServerPort, engine, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	var logger *zap.Logger
	var err error
	if config.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		os.Exit(1)
	}
	return logger
}
