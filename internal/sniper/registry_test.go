package sniper

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(oracle *fakeOracle, trader *fakeTrader) *Registry {
	return NewRegistry(RegistryConfig{
		PollInterval: 5 * time.Millisecond,
		Oracle:       oracle,
		Trader:       trader,
	})
}

func TestAddSessionReturnsUniqueHandles(t *testing.T) {
	r := newTestRegistry(&fakeOracle{}, &fakeTrader{})
	defer r.Close()
	ctx := context.Background()

	a, err := r.AddSession(ctx, "mint-a", 0, decimal.Zero)
	require.NoError(t, err)
	b, err := r.AddSession(ctx, "mint-b", 0, decimal.Zero)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, r.Sessions(), 2)
}

func TestAddSessionBuysImmediately(t *testing.T) {
	trader := &fakeTrader{}
	r := newTestRegistry(&fakeOracle{}, trader)
	defer r.Close()

	id, err := r.AddSession(context.Background(), "mint-a", 5, decimal.NewFromInt(50))
	require.NoError(t, err)

	info, err := r.Session(id)
	require.NoError(t, err)
	assert.Equal(t, PhaseBought, info.Phase)
	assert.Equal(t, 1, trader.buyCount())
}

func TestRegistryMutatesByHandle(t *testing.T) {
	oracle := &fakeOracle{}
	oracle.setPrice(49)
	trader := &fakeTrader{}
	r := newTestRegistry(oracle, trader)
	defer r.Close()
	ctx := context.Background()

	id, err := r.AddSession(ctx, "mint-a", 0, decimal.Zero)
	require.NoError(t, err)

	require.NoError(t, r.SetBuyAmount(ctx, id, 5))
	require.NoError(t, r.SetSellTarget(id, decimal.NewFromInt(50)))

	time.Sleep(30 * time.Millisecond)
	info, err := r.Session(id)
	require.NoError(t, err)
	assert.Equal(t, PhaseBought, info.Phase)

	oracle.setPrice(50)
	require.Eventually(t, func() bool {
		info, err := r.Session(id)
		return err == nil && info.Phase == PhaseClosed
	}, time.Second, time.Millisecond)
	assert.Equal(t, 1, trader.sellCount())
}

func TestRegistryUnknownHandle(t *testing.T) {
	r := newTestRegistry(&fakeOracle{}, &fakeTrader{})
	defer r.Close()
	ctx := context.Background()

	assert.ErrorIs(t, r.SetBuyAmount(ctx, "nope", 1), ErrSessionNotFound)
	assert.ErrorIs(t, r.SetSellTarget("nope", decimal.NewFromInt(1)), ErrSessionNotFound)
	assert.ErrorIs(t, r.Cancel("nope"), ErrSessionNotFound)

	_, err := r.Session("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCancelRemovesSession(t *testing.T) {
	r := newTestRegistry(&fakeOracle{}, &fakeTrader{})
	defer r.Close()
	ctx := context.Background()

	id, err := r.AddSession(ctx, "mint-a", 0, decimal.Zero)
	require.NoError(t, err)

	require.NoError(t, r.Cancel(id))
	assert.Empty(t, r.Sessions())
	assert.ErrorIs(t, r.Cancel(id), ErrSessionNotFound)
}

func TestSessionsReapsClosed(t *testing.T) {
	oracle := &fakeOracle{}
	oracle.setPrice(100)
	trader := &fakeTrader{}
	r := newTestRegistry(oracle, trader)
	defer r.Close()
	ctx := context.Background()

	_, err := r.AddSession(ctx, "mint-done", 5, decimal.NewFromInt(50))
	require.NoError(t, err)
	keep, err := r.AddSession(ctx, "mint-keep", 0, decimal.Zero)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		sessions := r.Sessions()
		return len(sessions) == 1 && sessions[0].ID == keep
	}, time.Second, time.Millisecond)
}

func TestAddSessionSurfacesBuyFailure(t *testing.T) {
	trader := &fakeTrader{buyErr: assert.AnError}
	r := newTestRegistry(&fakeOracle{}, trader)
	defer r.Close()

	id, err := r.AddSession(context.Background(), "mint-a", 5, decimal.NewFromInt(50))
	assert.ErrorIs(t, err, ErrTradeExecution)

	// The session survives the failed entry so the buy can be retried.
	info, infoErr := r.Session(id)
	require.NoError(t, infoErr)
	assert.Equal(t, PhaseWatching, info.Phase)
}

func TestCloseStopsEverything(t *testing.T) {
	r := newTestRegistry(&fakeOracle{}, &fakeTrader{})
	ctx := context.Background()

	_, err := r.AddSession(ctx, "mint-a", 0, decimal.Zero)
	require.NoError(t, err)
	_, err = r.AddSession(ctx, "mint-b", 0, decimal.Zero)
	require.NoError(t, err)

	r.Close()
	assert.Empty(t, r.Sessions())

	_, err = r.AddSession(ctx, "mint-c", 0, decimal.Zero)
	assert.ErrorIs(t, err, ErrSessionClosed)
}
