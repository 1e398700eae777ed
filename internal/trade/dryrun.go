// Package trade builds swap instructions for session buys and sells.
package trade

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"raydium-lp-sniper/internal/raydium"
)

// ErrUnknownMint is returned when no pool has been registered for a mint.
var ErrUnknownMint = errors.New("no pool registered for mint")

// DryRunTrader builds real swap instructions but never signs or broadcasts
// them. It is the default execution backend; a live backend would submit
// the same instructions.
type DryRunTrader struct {
	wallet solana.PublicKey
	logger *logrus.Logger

	mu    sync.RWMutex
	pools map[string]*raydium.PoolAccounts // keyed by coin mint
}

// NewDryRunTrader creates a trader acting on behalf of wallet.
func NewDryRunTrader(wallet solana.PublicKey, logger *logrus.Logger) *DryRunTrader {
	if logger == nil {
		logger = logrus.New()
	}
	return &DryRunTrader{
		wallet: wallet,
		logger: logger,
		pools:  make(map[string]*raydium.PoolAccounts),
	}
}

// RegisterPool binds a mint to the pool its trades route through.
func (t *DryRunTrader) RegisterPool(mint string, pool *raydium.PoolAccounts) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pools[mint] = pool
}

func (t *DryRunTrader) pool(mint string) (*raydium.PoolAccounts, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	pool, ok := t.pools[mint]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMint, mint)
	}
	return pool, nil
}

// Buy builds a swap spending amountIn quote units for the token.
func (t *DryRunTrader) Buy(ctx context.Context, mint string, amountIn uint64) error {
	return t.execute(ctx, mint, "buy", amountIn)
}

// Sell builds a swap disposing of amountIn token units.
func (t *DryRunTrader) Sell(ctx context.Context, mint string, amountIn uint64, price decimal.Decimal) error {
	if err := t.execute(ctx, mint, "sell", amountIn); err != nil {
		return err
	}
	t.logger.WithFields(logrus.Fields{
		"mint":  mint,
		"price": price.String(),
	}).Info("dry-run sell priced")
	return nil
}

func (t *DryRunTrader) execute(ctx context.Context, mint, side string, amountIn uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pool, err := t.pool(mint)
	if err != nil {
		return err
	}

	userSource := pool.UserPcVault
	userDest := pool.UserCoinVault
	if side == "sell" {
		userSource, userDest = userDest, userSource
	}

	ins, err := raydium.BuildSwapInstruction(pool, amountIn, 1, t.wallet, userSource, userDest)
	if err != nil {
		return fmt.Errorf("build %s instruction: %w", side, err)
	}

	t.logger.WithFields(logrus.Fields{
		"side":      side,
		"mint":      mint,
		"amount_in": amountIn,
		"program":   ins.ProgramID().String(),
		"accounts":  len(ins.Accounts()),
	}).Info("dry-run swap built, not broadcast")

	return nil
}
