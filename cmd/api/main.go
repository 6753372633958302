package main

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"rently/internal/adapter/api"
	"rently/internal/adapter/api/handler"
	apimiddleware "rently/internal/adapter/api/middleware"
	"rently/internal/adapter/api/router"
	"rently/internal/adapter/repository"
	"rently/internal/cache"
	"rently/internal/infrastructure/kvstore"
	"rently/internal/infrastructure/push"
	"rently/internal/infrastructure/storage"
	"rently/internal/infrastructure/websocket"
	"rently/internal/usecase"
	"rently/pkg/config"
	"rently/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create database pool: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to reach database: %v", err)
	}

	pushClient, err := push.NewClient(cfg.NatsURL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer pushClient.Close()

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.GCPCredentials)
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	// Redis is optional: the in-process store keeps saved items and the
	// session cache working, just not across restarts.
	var kvStore kvstore.Store
	redisStore, err := kvstore.NewRedisStore(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-memory store: %v", err)
		kvStore = kvstore.NewMemoryStore()
	} else {
		defer redisStore.Close()
		kvStore = redisStore
	}

	sessionCache := cache.NewSessionCache(kvStore, cfg.SessionCacheTTL)

	messageRepo := repository.NewPostgresMessageRepository(pool)
	profileRepo := repository.NewPostgresProfileRepository(pool)

	attachmentUseCase := usecase.NewAttachmentUseCase(
		storageClient,
		cfg.StorageBucket,
		cfg.PublicBucket,
		cfg.MaxAttachmentMB*1024*1024,
		cfg.MaxAttachments,
	)

	messageUseCase := usecase.NewMessageUseCase(messageRepo, profileRepo, attachmentUseCase, pushClient)
	messageUseCase.SetHistoryLimits(cfg.DirectHistory, cfg.ListingHistory)

	threadUseCase := usecase.NewThreadUseCase(messageRepo, profileRepo)
	savedUseCase := usecase.NewSavedItemsUseCase(kvStore)
	sessionUseCase := usecase.NewSessionUseCase(profileRepo, sessionCache)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	bridge := websocket.NewBridge(wsManager)
	if err := bridge.Start(pushClient, push.AllSubject()); err != nil {
		log.Fatalf("Failed to start push bridge: %v", err)
	}
	defer bridge.Stop()

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(cfg.JWTSecret)

	messageHandler := handler.NewMessageHandler(messageUseCase, threadUseCase, attachmentUseCase)
	savedHandler := handler.NewSavedHandler(savedUseCase)
	sessionHandler := handler.NewSessionHandler(sessionUseCase)
	wsHandler := handler.NewWebSocketHandler(wsManager, authMiddleware)
	healthHandler := handler.NewHealthHandler(pool)

	router.SetupMessageRouter(e, messageHandler, authMiddleware)
	router.SetupSavedRouter(e, savedHandler, authMiddleware)
	router.SetupSessionRouter(e, sessionHandler, authMiddleware)
	router.SetupWebSocketRouter(e, wsHandler)
	router.SetupHealthRouter(e, healthHandler)

	logger.Info("Starting server on port %s (%s)", cfg.ServerPort, cfg.Environment)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
