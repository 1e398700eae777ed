// Package sniper runs per-token trading sessions: buy on pool discovery,
// watch the price, sell at target.
package sniper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	// ErrSessionClosed is returned by mutations on a finished session.
	ErrSessionClosed = errors.New("session closed")

	// ErrTradeExecution wraps buy or sell failures from the trading backend.
	ErrTradeExecution = errors.New("trade execution failed")
)

// Phase is a session's position in its lifecycle.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseWatching Phase = "watching"
	PhaseBought   Phase = "bought"
	PhaseSelling  Phase = "selling"
	PhaseClosed   Phase = "closed"
)

// PriceOracle reports the current price of a token mint.
type PriceOracle interface {
	CurrentPrice(ctx context.Context, mint string) (decimal.Decimal, error)
}

// Trader executes buys and sells for a token mint.
type Trader interface {
	Buy(ctx context.Context, mint string, amountIn uint64) error
	Sell(ctx context.Context, mint string, amountIn uint64, price decimal.Decimal) error
}

// TickRecorder receives every price observation a session makes. Optional.
type TickRecorder interface {
	RecordTick(ctx context.Context, mint, sessionID string, price decimal.Decimal, observedAt time.Time) error
}

// SessionConfig carries a session's construction parameters.
type SessionConfig struct {
	ID           string
	Mint         string
	PollInterval time.Duration
	Oracle       PriceOracle
	Trader       Trader
	Ticks        TickRecorder
	Logger       *logrus.Logger
}

// Session tracks one token from discovery through sale. The buy happens
// immediately on Start; the poll loop then watches for the sell target.
type Session struct {
	id           string
	mint         string
	pollInterval time.Duration
	oracle       PriceOracle
	trader       Trader
	ticks        TickRecorder
	logger       *logrus.Logger

	mu         sync.Mutex
	phase      Phase
	buyAmount  uint64
	sellTarget decimal.Decimal
	lastPrice  decimal.Decimal
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewSession creates an idle session for one mint.
func NewSession(cfg SessionConfig) *Session {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 60 * time.Second
	}
	return &Session{
		id:           cfg.ID,
		mint:         cfg.Mint,
		pollInterval: cfg.PollInterval,
		oracle:       cfg.Oracle,
		trader:       cfg.Trader,
		ticks:        cfg.Ticks,
		logger:       cfg.Logger,
		phase:        PhaseIdle,
		done:         make(chan struct{}),
	}
}

// ID returns the session handle.
func (s *Session) ID() string { return s.id }

// Mint returns the token the session trades.
func (s *Session) Mint() string { return s.mint }

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// LastPrice returns the most recent observed price, zero before the first
// observation.
func (s *Session) LastPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPrice
}

// SetBuyAmount updates the buy size. If the session is already watching
// with no position and the amount is positive, the buy fires immediately.
func (s *Session) SetBuyAmount(ctx context.Context, amount uint64) error {
	s.mu.Lock()
	if s.phase == PhaseClosed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.buyAmount = amount
	shouldBuy := s.phase == PhaseWatching && amount > 0
	s.mu.Unlock()

	if shouldBuy {
		return s.buy(ctx)
	}
	return nil
}

// SetSellTarget updates the sell trigger price. A zero target disables
// selling.
func (s *Session) SetSellTarget(target decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseClosed {
		return ErrSessionClosed
	}
	s.sellTarget = target
	return nil
}

// Start moves the session to watching, attempts the immediate buy, and
// spawns the poll loop. A buy failure leaves the session watching; the
// next SetBuyAmount can retry it.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseIdle {
		s.mu.Unlock()
		if s.phase == PhaseClosed {
			return ErrSessionClosed
		}
		return fmt.Errorf("session %s already started", s.id)
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.phase = PhaseWatching
	buyAmount := s.buyAmount
	s.mu.Unlock()

	go s.run(runCtx)

	s.logger.WithFields(logrus.Fields{
		"session": s.id,
		"mint":    s.mint,
	}).Info("session watching")

	if buyAmount > 0 {
		return s.buy(ctx)
	}
	return nil
}

// Stop cancels the session. Idempotent.
func (s *Session) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	alreadyClosed := s.phase == PhaseClosed
	s.phase = PhaseClosed
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if alreadyClosed {
		return
	}
	if cancel == nil {
		// Never started; nothing is draining done.
		close(s.done)
	}
	s.logger.WithFields(logrus.Fields{
		"session": s.id,
		"mint":    s.mint,
	}).Info("session stopped")
}

// Done is closed when the poll loop has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.phase = PhaseClosed
			s.mu.Unlock()
			return
		case <-ticker.C:
			s.tick(ctx)
			s.mu.Lock()
			closed := s.phase == PhaseClosed
			s.mu.Unlock()
			if closed {
				return
			}
		}
	}
}

// tick drives one poll cycle. A session still watching with a positive
// buy amount retries the entry buy; once a position is open the cycle
// observes the price toward the sell target.
func (s *Session) tick(ctx context.Context) {
	s.mu.Lock()
	phase := s.phase
	armed := s.buyAmount > 0
	s.mu.Unlock()

	if phase == PhaseWatching && armed {
		if err := s.buy(ctx); err != nil {
			return
		}
	}

	s.observe(ctx)
}

// observe takes one price observation and sells when the target is met.
// The lock is held for the whole observation so setter mutations
// serialize against it.
func (s *Session) observe(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseBought {
		return
	}

	price, err := s.oracle.CurrentPrice(ctx, s.mint)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"session": s.id,
			"mint":    s.mint,
			"error":   err,
		}).Warn("price check failed")
		return
	}
	s.lastPrice = price

	if s.ticks != nil {
		if err := s.ticks.RecordTick(ctx, s.mint, s.id, price, time.Now().UTC()); err != nil {
			s.logger.WithField("error", err).Debug("tick not recorded")
		}
	}

	if s.sellTarget.IsZero() || price.LessThan(s.sellTarget) {
		return
	}

	s.phase = PhaseSelling
	if err := s.trader.Sell(ctx, s.mint, s.buyAmount, price); err != nil {
		s.logger.WithFields(logrus.Fields{
			"session": s.id,
			"mint":    s.mint,
			"error":   err,
		}).Error("sell failed, holding position")
		s.phase = PhaseBought
		return
	}

	s.logger.WithFields(logrus.Fields{
		"session": s.id,
		"mint":    s.mint,
		"price":   price.String(),
	}).Info("position sold")
	s.phase = PhaseClosed
}

// buy executes the entry trade. Caller must not hold the lock.
func (s *Session) buy(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseWatching || s.buyAmount == 0 {
		s.mu.Unlock()
		return nil
	}
	amount := s.buyAmount
	s.mu.Unlock()

	if err := s.trader.Buy(ctx, s.mint, amount); err != nil {
		s.logger.WithFields(logrus.Fields{
			"session": s.id,
			"mint":    s.mint,
			"error":   err,
		}).Error("buy failed, still watching")
		return fmt.Errorf("%w: %v", ErrTradeExecution, err)
	}

	s.mu.Lock()
	if s.phase == PhaseWatching {
		s.phase = PhaseBought
	}
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"session": s.id,
		"mint":    s.mint,
		"amount":  amount,
	}).Info("position opened")
	return nil
}
