package trade

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raydium-lp-sniper/internal/raydium"
)

func testPool(t *testing.T) *raydium.PoolAccounts {
	t.Helper()
	keys := make([]solana.PublicKey, 20)
	for i := range keys {
		var b [32]byte
		for j := range b {
			b[j] = byte(i + 1)
		}
		keys[i] = solana.PublicKeyFromBytes(b[:])
	}
	pool, err := raydium.LayoutV4.Bind(keys)
	require.NoError(t, err)
	return pool
}

func TestBuyRequiresRegisteredPool(t *testing.T) {
	trader := NewDryRunTrader(solana.PublicKey{}, nil)

	err := trader.Buy(context.Background(), "mint-x", 100)
	assert.ErrorIs(t, err, ErrUnknownMint)
}

func TestBuyAndSellBuildInstructions(t *testing.T) {
	trader := NewDryRunTrader(solana.PublicKey{}, nil)
	trader.RegisterPool("mint-x", testPool(t))

	ctx := context.Background()
	assert.NoError(t, trader.Buy(ctx, "mint-x", 5))
	assert.NoError(t, trader.Sell(ctx, "mint-x", 5, decimal.NewFromInt(50)))
}

func TestTradeHonorsCancelledContext(t *testing.T) {
	trader := NewDryRunTrader(solana.PublicKey{}, nil)
	trader.RegisterPool("mint-x", testPool(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := trader.Buy(ctx, "mint-x", 5)
	assert.ErrorIs(t, err, context.Canceled)
}
