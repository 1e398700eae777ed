package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"raydium-lp-sniper/internal/cache"
	"raydium-lp-sniper/internal/config"
	"raydium-lp-sniper/internal/server"
	"raydium-lp-sniper/internal/storage"
	"raydium-lp-sniper/internal/storage/memory"
	"raydium-lp-sniper/internal/storage/postgres"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main is the entry point for the read-only API server. It serves stored
// events and cached prices without a live trading registry; session routes
// respond 503.
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	loadEnv(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	var store storage.EventStore
	if cfg.PostgresDSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to Postgres")
		}
		store = postgres.NewEventStore(pool)
	} else {
		logger.Warn("POSTGRES_DSN not set, serving an empty in-memory store")
		store = memory.NewEventStore()
	}
	defer store.Close()

	var eventCache server.EventCache
	rc := cache.NewRedisCache(cfg.RedisAddr, logger)
	if err := rc.Ping(ctx); err != nil {
		logger.WithError(err).Warn("Redis unavailable, serving from store only")
		rc.Close()
	} else {
		eventCache = rc
		defer rc.Close()
	}

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: &server.Handlers{
			Cache:   eventCache,
			Store:   store,
			DevMode: cfg.DevMode,
			Logger:  logger,
		},
		Config: server.ServerConfig{
			Addr:    cfg.APIAddr,
			DevMode: cfg.DevMode,
			APIKey:  cfg.APIKey,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create server")
	}

	go func() {
		logger.WithField("addr", cfg.APIAddr).Info("starting API server")
		if err := srv.Start(); err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("server stopped")
			cancel()
		}
	}()

	select {
	case <-sigCh:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx := context.Background()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("server shutdown error")
	}
	_ = srv.WaitClosed(shutdownCtx)

	logger.Info("API server stopped")
}
