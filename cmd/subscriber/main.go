package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"raydium-lp-sniper/internal/cache"
	"raydium-lp-sniper/internal/config"
	"raydium-lp-sniper/internal/constants"
	"raydium-lp-sniper/internal/models"
)

// main is an example consumer: it tails the liquidity event firehose over
// Redis Pub/Sub and logs each event.
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	rc := cache.NewRedisCache(cfg.RedisAddr, logger)
	if err := rc.Ping(ctx); err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}
	defer rc.Close()

	go func() {
		err := rc.Subscribe(ctx, constants.PubSubChannelAll, func(event *models.LiquidityEvent) {
			fields := logrus.Fields{
				"signature":  event.Signature,
				"event_type": event.EventType,
			}
			switch event.EventType {
			case models.EventTypeAdd:
				fields["base_in"] = event.BaseAmountIn
				fields["quote_in"] = event.QuoteAmountIn
				fields["fixed_side"] = event.FixedSide
			case models.EventTypeRemove:
				fields["amount_in"] = event.AmountIn
			}
			if event.Pool != nil {
				fields["amm"] = event.Pool.AmmID
				fields["mint"] = event.Pool.CoinMint
			}
			logger.WithFields(fields).Info("liquidity event")
		})
		if err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("subscription ended")
			cancel()
		}
	}()

	logger.WithField("channel", constants.PubSubChannelAll).Info("subscriber running")

	select {
	case <-sigCh:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
	}
}
