package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/switzea/portal/internal/api"
	"github.com/switzea/portal/internal/config"
	"github.com/switzea/portal/internal/firebase"
	"github.com/switzea/portal/internal/identity"
	"github.com/switzea/portal/internal/metrics"
	"github.com/switzea/portal/internal/navigation"
	"github.com/switzea/portal/internal/portal"
	"github.com/switzea/portal/pkg/cache"
	"github.com/switzea/portal/pkg/database"
	"github.com/switzea/portal/pkg/messagequeue"
)

func main() {
	// In production, environment variables are set directly.
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: Error loading .env file:", err)
		}
	}

	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	logger, err := newLogger(appConfig)
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer logger.Sync()

	if err := run(appConfig, logger); err != nil {
		logger.Fatal("CRITICAL_ERROR: Portal server stopped", zap.Error(err))
	}
	logger.Info("Server exiting gracefully.")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	if cfg.Release() {
		zc = zap.NewProductionConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	zc.Level = level
	return zc.Build()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInit()

	boot := firebase.New(cfg, logger)
	defer boot.Close()
	backend, err := boot.Backend(initCtx)
	if err != nil {
		return fmt.Errorf("failed to initialize Firebase: %w", err)
	}

	var store database.DocumentStore
	switch cfg.StoreBackend {
	case config.StoreFirestore:
		if store, err = database.NewFirestoreStore(backend.Firestore); err != nil {
			return err
		}
	case config.StoreMemory:
		logger.Warn("Using the in-memory document store; data is lost on restart")
		store = database.NewMemoryStore()
	}

	var sessionCache cache.Cache = cache.Nop{}
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(initCtx, cache.NewRedisCacheConfig{
			Address:  cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   "portal:session:",
		}, logger)
		if err != nil {
			return err
		}
		defer rc.Close()
		sessionCache = rc
	}

	var events messagequeue.MessageQueue = messagequeue.Nop{}
	if cfg.RabbitMQURL != "" {
		mq, err := messagequeue.NewRabbitMQService(messagequeue.NewRabbitMQServiceConfig{URL: cfg.RabbitMQURL}, logger)
		if err != nil {
			return err
		}
		defer mq.Close()
		events = mq
	}

	provider, err := identity.NewFirebaseProvider(identity.FirebaseProviderConfig{
		Verifier: backend.Auth,
		Cache:    sessionCache,
		CacheTTL: cfg.SessionCacheTTL,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	wrapper, err := portal.New(portal.Options{
		Identity:   provider,
		Store:      store,
		Events:     events,
		EventQueue: cfg.RabbitMQQueue,
		Logger:     logger,
		LoginPath:  cfg.LoginPath,
	})
	if err != nil {
		return err
	}

	menu := navigation.DefaultMenu()
	if cfg.NavMenuFile != "" {
		if menu, err = navigation.LoadMenuFile(cfg.NavMenuFile); err != nil {
			return err
		}
		logger.Info("Navigation menu loaded", zap.String("file", cfg.NavMenuFile), zap.Int("links", len(menu.Links)))
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	if cfg.Release() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	server, err := api.NewServer(api.Deps{
		Config:     cfg,
		Logger:     logger,
		Wrapper:    wrapper,
		Sessions:   provider,
		Navigation: navigation.New(menu),
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
