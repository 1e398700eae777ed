package price

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raydium-lp-sniper/internal/raydium"
)

type fakeBalanceReader struct {
	balances map[string]uint64
	decimals map[string]uint8
	err      error
}

func (f *fakeBalanceReader) GetTokenAccountBalance(_ context.Context, account string) (uint64, uint8, error) {
	if f.err != nil {
		return 0, 0, f.err
	}
	return f.balances[account], f.decimals[account], nil
}

func poolWithVaults(coinVault, pcVault solana.PublicKey) *raydium.PoolAccounts {
	return &raydium.PoolAccounts{CoinVault: coinVault, PcVault: pcVault}
}

func key(seed byte) solana.PublicKey {
	var b [32]byte
	for i := range b {
		b[i] = seed
	}
	return solana.PublicKeyFromBytes(b[:])
}

func TestCurrentPriceFromVaultRatio(t *testing.T) {
	coinVault := key(1)
	pcVault := key(2)

	reader := &fakeBalanceReader{
		balances: map[string]uint64{
			coinVault.String(): 4_000_000, // 4.0 at 6 decimals
			pcVault.String():   2_000_000_000, // 2.0 at 9 decimals
		},
		decimals: map[string]uint8{
			coinVault.String(): 6,
			pcVault.String():   9,
		},
	}

	oracle := NewVaultOracle(reader, nil)
	oracle.RegisterPool("mint-a", poolWithVaults(coinVault, pcVault))

	price, err := oracle.CurrentPrice(context.Background(), "mint-a")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromFloat(0.5)), "got %s", price)
}

func TestCurrentPriceUnknownMint(t *testing.T) {
	oracle := NewVaultOracle(&fakeBalanceReader{}, nil)

	_, err := oracle.CurrentPrice(context.Background(), "mint-missing")
	assert.ErrorIs(t, err, ErrUnknownMint)
}

func TestCurrentPriceEmptyVault(t *testing.T) {
	coinVault := key(3)
	pcVault := key(4)

	reader := &fakeBalanceReader{
		balances: map[string]uint64{pcVault.String(): 100},
		decimals: map[string]uint8{},
	}

	oracle := NewVaultOracle(reader, nil)
	oracle.RegisterPool("mint-b", poolWithVaults(coinVault, pcVault))

	_, err := oracle.CurrentPrice(context.Background(), "mint-b")
	assert.Error(t, err)
}

func TestCurrentPricePropagatesReaderFailure(t *testing.T) {
	readErr := errors.New("rpc down")
	oracle := NewVaultOracle(&fakeBalanceReader{err: readErr}, nil)
	oracle.RegisterPool("mint-c", poolWithVaults(key(5), key(6)))

	_, err := oracle.CurrentPrice(context.Background(), "mint-c")
	assert.ErrorIs(t, err, readErr)
}

func TestRegisterPoolReplacesBinding(t *testing.T) {
	first := poolWithVaults(key(7), key(8))
	second := poolWithVaults(key(9), key(10))

	reader := &fakeBalanceReader{
		balances: map[string]uint64{
			key(9).String():  1_000,
			key(10).String(): 3_000,
		},
		decimals: map[string]uint8{},
	}

	oracle := NewVaultOracle(reader, nil)
	oracle.RegisterPool("mint-d", first)
	oracle.RegisterPool("mint-d", second)

	price, err := oracle.CurrentPrice(context.Background(), "mint-d")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(3)), "got %s", price)
}
