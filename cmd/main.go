package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"invitely/eventhub/internal/blob"
	"invitely/eventhub/internal/config"
	"invitely/eventhub/internal/handler"
	"invitely/eventhub/internal/model"
	oidcauth "invitely/eventhub/internal/oidc"
	"invitely/eventhub/internal/repository"
	"invitely/eventhub/internal/service"
	"invitely/eventhub/pkg/crypto"
	jwtpkg "invitely/eventhub/pkg/jwt"
)

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Format != "json" {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func main() {
	// 1. Load .env (optional) and configuration
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to load .env: %v", err)
	}
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Initialize logger
	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// 3. Initialize document store
	var (
		store       repository.DocumentStore
		redisClient *redis.Client
	)
	connectRedis := func() *redis.Client {
		if redisClient == nil {
			redisClient, err = config.NewRedisClient(cfg.Database.Redis)
			if err != nil {
				logger.Fatal("failed to connect to redis", zap.Error(err))
			}
		}
		return redisClient
	}

	switch cfg.Store.Backend {
	case "memory":
		store = repository.NewMemoryDocumentStore()
	case "redis":
		store = repository.NewRedisDocumentStore(connectRedis())
	case "postgres":
		db, err := config.NewPostgresDB(cfg.Database.Postgres)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		if cfg.Database.Postgres.AutoMigrate {
			if err := model.AutoMigrate(db); err != nil {
				logger.Fatal("failed to auto-migrate", zap.Error(err))
			}
			logger.Info("database migration completed")
		}
		store = repository.NewPGDocumentStore(db)
	case "sqlite":
		db, err := config.NewSQLiteDB(cfg.Database.SQLite)
		if err != nil {
			logger.Fatal("failed to open sqlite", zap.Error(err))
		}
		defer db.Close()
		store, err = repository.NewSQLiteDocumentStore(ctx, db)
		if err != nil {
			logger.Fatal("failed to init sqlite store", zap.Error(err))
		}
	case "dynamodb":
		client, err := config.NewDynamoClient(ctx, cfg.Database.DynamoDB)
		if err != nil {
			logger.Fatal("failed to init dynamodb client", zap.Error(err))
		}
		store = repository.NewDynamoDocumentStore(client, cfg.Database.DynamoDB.Table)
	default:
		logger.Fatal("unknown store backend", zap.String("backend", cfg.Store.Backend))
	}
	logger.Info("document store initialized", zap.String("backend", cfg.Store.Backend))

	// 4. Initialize lock table
	var locker repository.KeyLocker
	switch cfg.Store.LockBackend {
	case "memory":
		locker = repository.NewMemoryKeyLocker()
	case "redis":
		locker = repository.NewRedisKeyLocker(connectRedis(), cfg.Store.LockTTL)
	default:
		logger.Fatal("unknown lock backend", zap.String("backend", cfg.Store.LockBackend))
	}
	if cfg.Store.LockBackend == "memory" && cfg.Store.Backend != "memory" && cfg.Store.Backend != "sqlite" {
		logger.Warn("in-process locks only serialize writers within this instance; use lock_backend=redis when scaling out")
	}

	// 5. Initialize repositories
	eventRepo := repository.NewEventRepository(store, locker)
	tokenRepo := repository.NewGuestTokenRepository(store)
	galleryRepo := repository.NewGalleryRepository(store, locker)

	// 6. Initialize blob store
	var (
		blobs       blob.Store
		blobHandler *handler.BlobHandler
	)
	switch cfg.Blob.Backend {
	case "memory":
		if cfg.Blob.SigningSecret == "" {
			logger.Fatal("blob.signing_secret is required for the memory blob backend")
		}
		key, err := crypto.DeriveKey(cfg.Blob.SigningSecret, "eventhub blob url", 32)
		if err != nil {
			logger.Fatal("failed to derive blob signing key", zap.Error(err))
		}
		mem := blob.NewMemoryStore(cfg.Blob.PublicBaseURL, jwtpkg.NewManager(key, "eventhub-blob", 0))
		blobs = mem
		blobHandler = handler.NewBlobHandler(mem)
	case "s3":
		client, err := config.NewS3Client(ctx, cfg.Blob.S3)
		if err != nil {
			logger.Fatal("failed to init s3 client", zap.Error(err))
		}
		blobs = blob.NewS3Store(client, cfg.Blob.S3.Bucket)
	default:
		logger.Fatal("unknown blob backend", zap.String("backend", cfg.Blob.Backend))
	}
	logger.Info("blob store initialized", zap.String("backend", cfg.Blob.Backend))

	// 7. Initialize sender authentication
	var authn service.SenderAuthenticator
	switch cfg.Auth.Provider {
	case "jwt":
		if cfg.Auth.JWT.SigningKey == "" {
			logger.Fatal("auth.jwt.signing_key is required")
		}
		authn = service.NewJWTAuthenticator(jwtpkg.NewManager(
			[]byte(cfg.Auth.JWT.SigningKey),
			cfg.Auth.JWT.Issuer,
			cfg.Auth.JWT.AccessTokenTTL,
		))
	case "oidc":
		authn, err = oidcauth.NewIntrospectionAuthenticator(ctx, cfg.Auth.OIDC)
		if err != nil {
			logger.Fatal("failed to init oidc introspection", zap.Error(err))
		}
		logger.Info("OIDC introspection initialized", zap.String("issuer", cfg.Auth.OIDC.Issuer))
	default:
		logger.Fatal("unknown auth provider", zap.String("provider", cfg.Auth.Provider))
	}

	// 8. Initialize services
	ids := service.NewIDGenerator()
	hub := handler.NewGalleryHub(logger)
	eventService := service.NewEventService(eventRepo, tokenRepo, ids, service.EventServiceConfig{
		DefaultMessage: cfg.Invitation.DefaultMessage,
		QRCodeSize:     cfg.Invitation.QRCodeSize,
	}, logger)
	guestService := service.NewGuestService(eventRepo, tokenRepo, logger)
	galleryService := service.NewGalleryService(eventRepo, galleryRepo, blobs, ids, hub, service.GalleryServiceConfig{
		SignedURLTTL:   cfg.Blob.SignedURLTTL,
		MaxUploadBytes: cfg.Blob.MaxUploadBytes,
	}, logger)

	// 9. Initialize handlers
	eventHandler := handler.NewEventHandler(eventService, cfg.Invitation.PublicOrigin)
	guestHandler := handler.NewGuestHandler(guestService)
	galleryHandler := handler.NewGalleryHandler(galleryService, cfg.Blob.MaxUploadBytes)

	// 10. Setup router
	router := handler.SetupRouter(cfg, logger, authn, guestService, eventHandler, guestHandler, galleryHandler, hub, blobHandler)

	// 11. Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 12. Start server with graceful shutdown
	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// 13. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	if err := hub.Close(); err != nil {
		logger.Warn("failed to close gallery hub", zap.Error(err))
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	logger.Info("server exited gracefully")
}
