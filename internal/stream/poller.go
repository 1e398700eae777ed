// Package stream delivers confirmed transaction signatures touching the
// watched program, either by RPC polling or a websocket subscription.
package stream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"raydium-lp-sniper/internal/constants"
	"raydium-lp-sniper/internal/rpc"
)

// SignatureHandler processes one confirmed transaction signature.
type SignatureHandler func(ctx context.Context, signature string)

// Provider is a source of transaction signatures for the watched program.
type Provider interface {
	Start(ctx context.Context, handler SignatureHandler) error
}

// Poller implements Provider by polling getSignaturesForAddress.
type Poller struct {
	client         *rpc.Client
	programAddress string
	pollInterval   time.Duration
	batchSize      int
	logger         *logrus.Logger

	mu            sync.RWMutex
	lastSignature string
	running       bool
}

// PollerConfig holds configuration for the poller.
type PollerConfig struct {
	RPCClient      *rpc.Client
	ProgramAddress string
	PollInterval   time.Duration
	BatchSize      int
	Logger         *logrus.Logger
}

// NewPoller creates a poller for one program address.
func NewPoller(cfg PollerConfig) *Poller {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.ProgramAddress == "" {
		cfg.ProgramAddress = constants.RaydiumAMMProgramID
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = constants.SignatureBatchSize
	}

	return &Poller{
		client:         cfg.RPCClient,
		programAddress: cfg.ProgramAddress,
		pollInterval:   cfg.PollInterval,
		batchSize:      cfg.BatchSize,
		logger:         cfg.Logger,
	}
}

// Start begins polling until ctx is cancelled.
func (p *Poller) Start(ctx context.Context, handler SignatureHandler) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller already running")
	}
	p.running = true
	p.mu.Unlock()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	p.logger.WithFields(logrus.Fields{
		"interval": p.pollInterval,
		"program":  p.programAddress,
	}).Info("starting signature polling")

	for {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			p.running = false
			p.mu.Unlock()
			return ctx.Err()

		case <-ticker.C:
			if err := p.poll(ctx, handler); err != nil {
				p.logger.WithError(err).Error("poll error")
			}
		}
	}
}

// poll fetches signatures newer than the high-water mark and hands each to
// the handler, oldest first so downstream ordering matches chain order.
func (p *Poller) poll(ctx context.Context, handler SignatureHandler) error {
	opts := map[string]interface{}{
		"limit":      p.batchSize,
		"commitment": "confirmed",
	}

	p.mu.RLock()
	lastSig := p.lastSignature
	p.mu.RUnlock()

	if lastSig != "" {
		opts["until"] = lastSig
	}

	sigResp, err := p.client.GetSignaturesForAddress(ctx, p.programAddress, opts)
	if err != nil {
		return fmt.Errorf("failed to get signatures: %w", err)
	}

	if len(sigResp.Result) == 0 {
		p.logger.Debug("no new transactions")
		return nil
	}

	p.logger.WithField("count", len(sigResp.Result)).Info("found new signatures")

	p.mu.Lock()
	p.lastSignature = sigResp.Result[0].Signature
	p.mu.Unlock()

	for i := len(sigResp.Result) - 1; i >= 0; i-- {
		sig := sigResp.Result[i]
		if sig.Err != nil {
			p.logger.WithField("signature", shortSig(sig.Signature)).Debug("skipping failed transaction")
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		handler(ctx, sig.Signature)
	}

	return nil
}

func shortSig(sig string) string {
	if len(sig) > 8 {
		return sig[:8]
	}
	return sig
}
