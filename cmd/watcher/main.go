package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"raydium-lp-sniper/internal/cache"
	"raydium-lp-sniper/internal/codec"
	"raydium-lp-sniper/internal/config"
	"raydium-lp-sniper/internal/constants"
	"raydium-lp-sniper/internal/models"
	"raydium-lp-sniper/internal/pipeline"
	"raydium-lp-sniper/internal/price"
	"raydium-lp-sniper/internal/raydium"
	"raydium-lp-sniper/internal/rpc"
	"raydium-lp-sniper/internal/server"
	"raydium-lp-sniper/internal/sniper"
	"raydium-lp-sniper/internal/storage"
	"raydium-lp-sniper/internal/storage/memory"
	"raydium-lp-sniper/internal/storage/postgres"
	"raydium-lp-sniper/internal/stream"
	"raydium-lp-sniper/internal/trade"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main is the entry point for the pool watcher service. It follows the
// Raydium AMM program for liquidity events, records them, and optionally
// opens sniper sessions on newly seen pools.
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	programID, err := solana.PublicKeyFromBase58(cfg.ProgramID)
	if err != nil {
		logger.WithError(err).Fatal("invalid program id")
	}

	wallet := solana.PublicKey{}
	if cfg.WalletAddress != "" {
		wallet, err = solana.PublicKeyFromBase58(cfg.WalletAddress)
		if err != nil {
			logger.WithError(err).Fatal("invalid wallet address")
		}
	}

	rpcClient := rpc.NewClient(rpc.ClientConfig{
		BaseURL:           cfg.RPCUrl,
		Timeout:           cfg.HTTPTimeout,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            logger,
	})

	// Event store: Postgres when configured, in-memory otherwise.
	var store storage.EventStore
	if cfg.PostgresDSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to Postgres")
		}
		eventStore := postgres.NewEventStore(pool)
		if err := eventStore.EnsureSchema(ctx); err != nil {
			logger.WithError(err).Fatal("failed to create schema")
		}
		store = eventStore
	} else {
		logger.Warn("POSTGRES_DSN not set, events are kept in memory only")
		store = memory.NewEventStore()
	}
	defer store.Close()

	// Redis hot path is optional; the watcher runs degraded without it.
	var redisCache *cache.RedisCache
	rc := cache.NewRedisCache(cfg.RedisAddr, logger)
	if err := rc.Ping(ctx); err != nil {
		logger.WithError(err).Warn("Redis unavailable, running without cache")
		rc.Close()
	} else {
		redisCache = rc
		defer redisCache.Close()
	}

	// ClickHouse tick history is optional as well.
	var ticks sniper.TickRecorder
	if cfg.ClickHouseDSN != "" {
		tickStore, err := cache.NewTickStore(ctx, cfg.ClickHouseDSN)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to ClickHouse")
		}
		if err := tickStore.EnsureSchema(ctx); err != nil {
			logger.WithError(err).Fatal("failed to create tick schema")
		}
		defer tickStore.Close()
		ticks = tickStore
	}

	oracle := price.NewVaultOracle(rpcClient, logger)
	trader := trade.NewDryRunTrader(wallet, logger)

	registry := sniper.NewRegistry(sniper.RegistryConfig{
		PollInterval: cfg.SessionPollInterval,
		Oracle:       oracle,
		Trader:       trader,
		Ticks:        ticks,
		Logger:       logger,
	})
	defer registry.Close()

	snipeTarget := decimal.Zero
	if cfg.SnipeSellTarget != "" {
		snipeTarget, err = decimal.NewFromString(cfg.SnipeSellTarget)
		if err != nil {
			logger.WithError(err).Fatal("invalid SNIPE_SELL_TARGET")
		}
	}

	// onPool wires each fully bound pool into the oracle and trader, and
	// optionally opens a session for a fresh add-liquidity pool.
	onPool := func(ctx context.Context, event *models.LiquidityEvent, extraction *raydium.Extraction) {
		mint := extraction.CoinMint.String()
		oracle.RegisterPool(mint, extraction.Accounts)
		trader.RegisterPool(mint, extraction.Accounts)

		if redisCache != nil {
			if p, err := oracle.CurrentPrice(ctx, mint); err == nil {
				f, _ := p.Float64()
				if err := redisCache.UpdatePrice(ctx, mint, f); err != nil {
					logger.WithError(err).Warn("could not cache price")
				}
			}
		}

		if cfg.AutoRegister && event.EventType == models.EventTypeAdd {
			id, err := registry.AddSession(ctx, mint, cfg.SnipeBuyAmount, snipeTarget)
			if err != nil && !errors.Is(err, sniper.ErrTradeExecution) {
				logger.WithError(err).WithField("mint", mint).Warn("could not register sniper session")
				return
			}
			if err != nil {
				logger.WithError(err).WithField("mint", mint).Warn("auto session entry incomplete")
			}
			logger.WithFields(logrus.Fields{
				"session": id,
				"mint":    mint,
			}).Info("auto-registered sniper session")
		}
	}

	var eventCache pipeline.EventCache
	if redisCache != nil {
		eventCache = redisCache
	}
	pipe := pipeline.New(pipeline.Config{
		Ledger:    rpcClient,
		Extractor: raydium.NewExtractor(raydium.ExtractorConfig{
			ProgramID:   programID,
			Layout:      raydium.LayoutV4,
			MinAccounts: cfg.MinPoolAccounts,
			Logger:      logger,
		}),
		Codec:  codec.NewCodec(constants.AddLiquidityTag, constants.RemoveLiquidityTag),
		Store:  store,
		Cache:  eventCache,
		OnPool: onPool,
		Logger: logger,
	})

	var provider stream.Provider
	switch cfg.StreamProvider {
	case "ws":
		provider = stream.NewWSStream(stream.WSStreamConfig{
			URL:            cfg.WSUrl,
			ProgramAddress: cfg.ProgramID,
			Logger:         logger,
		})
	default:
		provider = stream.NewPoller(stream.PollerConfig{
			RPCClient:      rpcClient,
			ProgramAddress: cfg.ProgramID,
			PollInterval:   cfg.PollInterval,
			Logger:         logger,
		})
	}

	go func() {
		if err := provider.Start(ctx, pipe.Handle); err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("signature stream stopped")
			cancel()
		}
	}()

	// The watcher also serves the session-control API so operators can arm
	// and cancel snipes against the live registry.
	var serverCache server.EventCache
	if redisCache != nil {
		serverCache = redisCache
	}
	srv, err := server.NewServer(server.ServerDeps{
		Handlers: &server.Handlers{
			Cache:    serverCache,
			Store:    store,
			Registry: registry,
			DevMode:  cfg.DevMode,
			Logger:   logger,
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

	logger.WithFields(logrus.Fields{
		"program": cfg.ProgramID,
		"stream":  cfg.StreamProvider,
	}).Info("watcher running")

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

	logger.Info("watcher stopped")
}
