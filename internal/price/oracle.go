// Package price derives token prices from AMM vault balances.
package price

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"raydium-lp-sniper/internal/raydium"
)

// ErrUnknownMint is returned when no pool has been registered for a mint.
var ErrUnknownMint = errors.New("no pool registered for mint")

// BalanceReader fetches on-chain token account balances.
type BalanceReader interface {
	GetTokenAccountBalance(ctx context.Context, account string) (uint64, uint8, error)
}

// VaultOracle prices a token as the ratio of the pool's quote vault to its
// coin vault, adjusted for mint decimals.
type VaultOracle struct {
	reader BalanceReader
	logger *logrus.Logger

	mu    sync.RWMutex
	pools map[string]*raydium.PoolAccounts // keyed by coin mint
}

// NewVaultOracle creates an oracle over the given balance reader.
func NewVaultOracle(reader BalanceReader, logger *logrus.Logger) *VaultOracle {
	if logger == nil {
		logger = logrus.New()
	}
	return &VaultOracle{
		reader: reader,
		logger: logger,
		pools:  make(map[string]*raydium.PoolAccounts),
	}
}

// RegisterPool binds a mint to the pool whose vaults price it. A later
// registration for the same mint replaces the earlier one.
func (o *VaultOracle) RegisterPool(mint string, pool *raydium.PoolAccounts) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pools[mint] = pool
}

// CurrentPrice returns the token's price in quote units per coin unit.
func (o *VaultOracle) CurrentPrice(ctx context.Context, mint string) (decimal.Decimal, error) {
	o.mu.RLock()
	pool, ok := o.pools[mint]
	o.mu.RUnlock()
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownMint, mint)
	}

	coinRaw, coinDecimals, err := o.reader.GetTokenAccountBalance(ctx, pool.CoinVault.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("coin vault balance: %w", err)
	}
	pcRaw, pcDecimals, err := o.reader.GetTokenAccountBalance(ctx, pool.PcVault.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("quote vault balance: %w", err)
	}

	if coinRaw == 0 {
		return decimal.Zero, fmt.Errorf("coin vault %s is empty", pool.CoinVault)
	}

	coin := decimal.NewFromUint64(coinRaw).Shift(-int32(coinDecimals))
	pc := decimal.NewFromUint64(pcRaw).Shift(-int32(pcDecimals))

	price := pc.Div(coin)
	o.logger.WithFields(logrus.Fields{
		"mint":  mint,
		"price": price.String(),
	}).Debug("priced mint from vault balances")

	return price, nil
}
