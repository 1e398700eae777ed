// Package pipeline turns confirmed transaction signatures into persisted
// liquidity events.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"raydium-lp-sniper/internal/codec"
	"raydium-lp-sniper/internal/constants"
	"raydium-lp-sniper/internal/models"
	"raydium-lp-sniper/internal/raydium"
	"raydium-lp-sniper/internal/rpc"
	"raydium-lp-sniper/internal/storage"
)

// LedgerClient is the slice of the RPC surface the pipeline needs.
type LedgerClient interface {
	GetTransaction(ctx context.Context, signature string) (*rpc.TransactionResult, error)
	GetBalance(ctx context.Context, address string) (uint64, error)
}

// EventCache is the optional Redis hot path. All methods are best-effort;
// the pipeline treats cache failures as non-fatal.
type EventCache interface {
	MarkProcessed(ctx context.Context, signature string) (bool, error)
	AddRecentEvent(ctx context.Context, event *models.LiquidityEvent) error
	PublishEvent(ctx context.Context, event *models.LiquidityEvent) error
}

// PoolHook is invoked once per stored event that carries a full pool
// binding, before the event is published.
type PoolHook func(ctx context.Context, event *models.LiquidityEvent, extraction *raydium.Extraction)

// Pipeline fetches, extracts, decodes, persists, and fans out liquidity
// events. It is safe for concurrent use.
type Pipeline struct {
	ledger    LedgerClient
	extractor *raydium.Extractor
	codec     *codec.Codec
	store     storage.EventStore
	cache     EventCache
	onPool    PoolHook
	logger    *logrus.Logger
}

// Config carries the pipeline's construction parameters. Cache and OnPool
// are optional.
type Config struct {
	Ledger    LedgerClient
	Extractor *raydium.Extractor
	Codec     *codec.Codec
	Store     storage.EventStore
	Cache     EventCache
	OnPool    PoolHook
	Logger    *logrus.Logger
}

// New creates a pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Pipeline{
		ledger:    cfg.Ledger,
		extractor: cfg.Extractor,
		codec:     cfg.Codec,
		store:     cfg.Store,
		cache:     cfg.Cache,
		onPool:    cfg.OnPool,
		logger:    cfg.Logger,
	}
}

// Process handles one transaction signature end to end. It returns the
// stored event, or (nil, nil) when the transaction is not a liquidity
// event or was already processed.
func (p *Pipeline) Process(ctx context.Context, signature string) (*models.LiquidityEvent, error) {
	if p.cache != nil {
		first, err := p.cache.MarkProcessed(ctx, signature)
		if err != nil {
			p.logger.WithFields(logrus.Fields{
				"signature": signature,
				"error":     err,
			}).Warn("dedupe guard unavailable, relying on store uniqueness")
		} else if !first {
			return nil, nil
		}
	}

	tx, err := p.ledger.GetTransaction(ctx, signature)
	if err != nil {
		return nil, fmt.Errorf("fetch transaction %s: %w", signature, err)
	}

	extraction, err := p.extractor.Extract(tx)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", signature, err)
	}
	if extraction == nil || extraction.Candidate == nil {
		return nil, nil
	}
	if extraction.Accounts == nil {
		// Short of a full role binding there is no pool to record.
		p.logger.WithFields(logrus.Fields{
			"signature": signature,
			"mint":      extraction.CoinMint.String(),
		}).Debug("partial account list, not a pool event")
		return nil, nil
	}

	instruction, err := p.codec.Decode(extraction.Candidate.Payload)
	if err != nil {
		// Other program instructions share the account shape; an alien
		// payload is expected traffic, not a fault.
		if errors.Is(err, codec.ErrUnknownDiscriminant) || errors.Is(err, codec.ErrSchemaMismatch) {
			p.logger.WithFields(logrus.Fields{
				"signature": signature,
				"error":     err,
			}).Debug("candidate payload is not a liquidity instruction")
			return nil, nil
		}
		return nil, fmt.Errorf("decode %s: %w", signature, err)
	}

	event := p.buildEvent(ctx, signature, tx, extraction, instruction)

	if err := p.store.InsertEvent(ctx, event); err != nil {
		if errors.Is(err, storage.ErrDuplicateEvent) {
			p.logger.WithField("signature", signature).Debug("event already recorded")
			return nil, nil
		}
		return nil, fmt.Errorf("store %s: %w", signature, err)
	}

	if p.onPool != nil {
		p.onPool(ctx, event, extraction)
	}

	p.fanOut(ctx, event)

	p.logger.WithFields(logrus.Fields{
		"signature":  signature,
		"event_type": event.EventType,
		"mint":       extraction.CoinMint.String(),
	}).Info("liquidity event recorded")

	return event, nil
}

// Handle adapts Process to the signature-stream handler shape, logging
// failures instead of propagating them so one bad transaction cannot stall
// the stream.
func (p *Pipeline) Handle(ctx context.Context, signature string) {
	if _, err := p.Process(ctx, signature); err != nil {
		p.logger.WithFields(logrus.Fields{
			"signature": signature,
			"error":     err,
		}).Error("failed to process transaction")
	}
}

func (p *Pipeline) buildEvent(ctx context.Context, signature string, tx *rpc.TransactionResult, extraction *raydium.Extraction, instruction codec.Instruction) *models.LiquidityEvent {
	event := &models.LiquidityEvent{
		Signature:      signature,
		InstructionTag: instruction.Discriminant(),
		CapturedAt:     time.Now().UTC(),
	}
	if tx.BlockTime != nil {
		event.CapturedAt = time.Unix(*tx.BlockTime, 0).UTC()
	}

	switch ins := instruction.(type) {
	case codec.AddLiquidity:
		event.EventType = models.EventTypeAdd
		event.BaseAmountIn = ins.BaseAmountIn
		event.QuoteAmountIn = ins.QuoteAmountIn
		event.FixedSide = ins.FixedSide.String()
	case codec.RemoveLiquidity:
		event.EventType = models.EventTypeRemove
		event.AmountIn = ins.AmountIn
	}

	event.Pool = extraction.Accounts.Snapshot()
	event.LiquiditySOL = p.liquiditySOL(ctx, extraction.CoinMint.String())

	return event
}

// liquiditySOL reads the coin mint account's lamport balance as a rough
// size signal. Best effort: a failed read leaves the field at zero.
func (p *Pipeline) liquiditySOL(ctx context.Context, mint string) float64 {
	lamports, err := p.ledger.GetBalance(ctx, mint)
	if err != nil {
		p.logger.WithFields(logrus.Fields{
			"mint":  mint,
			"error": err,
		}).Warn("could not read coin mint balance")
		return 0
	}
	return float64(lamports) / constants.LamportsPerSOL
}

func (p *Pipeline) fanOut(ctx context.Context, event *models.LiquidityEvent) {
	if p.cache == nil {
		return
	}
	if err := p.cache.AddRecentEvent(ctx, event); err != nil {
		p.logger.WithField("error", err).Warn("could not cache recent event")
	}
	if err := p.cache.PublishEvent(ctx, event); err != nil {
		p.logger.WithField("error", err).Warn("could not publish event")
	}
}
