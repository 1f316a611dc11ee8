package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/manorfm/identity-server/internal/application"
	"github.com/manorfm/identity-server/internal/infrastructure/config"
	"github.com/manorfm/identity-server/internal/infrastructure/database"
	"github.com/manorfm/identity-server/internal/infrastructure/kvstore"
	"github.com/manorfm/identity-server/internal/infrastructure/repository"
	"github.com/manorfm/identity-server/internal/infrastructure/repository/memory"
	httprouter "github.com/manorfm/identity-server/internal/interfaces/http"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const kvSweepInterval = time.Minute

// @title Identity Server API
// @version 1.0
// @description OAuth2 authorization server with opaque bearer tokens
// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Initialize logger
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = level
	logger, err := zapCfg.Build()
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(logger)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if lvl, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		level.SetLevel(lvl)
	} else {
		logger.Warn("Unknown log level, keeping info", zap.String("level", cfg.LogLevel))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := httprouter.Dependencies{}

	// Storage backend
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		db, err := database.NewPostgres(ctx, cfg, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		if err := db.RunMigrations("migrations"); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}

		deps.Entities = repository.NewEntityRepository(db, logger)
		deps.Clients = repository.NewClientRepository(db, logger)
		deps.Tokens = repository.NewTokenRepository(db, logger)
		deps.Health = append(deps.Health, db)
	case config.BackendMemory:
		logger.Warn("Using in-memory storage, data is lost on restart")
		deps.Entities = memory.NewEntityRepository()
		deps.Clients = memory.NewClientRepository()
		deps.Tokens = memory.NewTokenRepository()
	}

	// Code and transaction store
	var backend kvstore.Backend
	switch cfg.KVBackend {
	case config.BackendRedis:
		rdb, err := kvstore.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()

		redisBackend := kvstore.NewRedisBackend(rdb)
		backend = redisBackend
		deps.Health = append(deps.Health, redisBackend)
	case config.BackendMemory:
		memoryBackend := kvstore.NewMemoryBackend(logger)
		go memoryBackend.Run(ctx, kvSweepInterval)
		backend = memoryBackend
	}
	deps.Codes = kvstore.NewCodeStore(backend, cfg.RedisKeyPrefix, cfg.AuthCodeTTL)
	deps.Transactions = kvstore.NewTransactionStore(backend, cfg.RedisKeyPrefix, cfg.TransactionTTL)

	if err := application.Bootstrap(ctx,
		application.NewEntityService(deps.Entities, logger),
		application.NewClientService(deps.Clients, deps.Tokens, logger),
		bootstrapConfig(cfg), logger); err != nil {
		logger.Fatal("Failed to bootstrap admin", zap.Error(err))
	}

	// Create router
	router := httprouter.NewRouter(deps, cfg, logger)
	defer router.Close()

	// Start server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server",
			zap.Int("port", cfg.ServerPort),
			zap.String("storage", cfg.StorageBackend),
			zap.String("kv", cfg.KVBackend))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()

	// Graceful shutdown
	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("Server exited properly")
}

func bootstrapConfig(cfg *config.Config) application.BootstrapConfig {
	return application.BootstrapConfig{
		Admin: application.EntityRegistration{
			Username:     cfg.AdminUsername,
			Domain:       cfg.AdminDomain,
			PasswordHash: cfg.AdminPasswordHash,
			PasswordSalt: cfg.AdminPasswordSalt,
		},
		Client: application.ClientRegistration{
			ClientID:     cfg.AdminClientID,
			ClientSecret: cfg.AdminClientSecret,
			RedirectURI:  cfg.AdminClientRedirectURI,
			Trusted:      true,
		},
	}
}
