package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raydium-lp-sniper/internal/models"
	"raydium-lp-sniper/internal/storage"
)

// setupTestStore connects to the database named by POSTGRES_TEST_DSN and
// skips the test when none is reachable.
func setupTestStore(t *testing.T) (*EventStore, func()) {
	t.Helper()

	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set, skipping postgres integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := NewPool(ctx, dsn)
	if err != nil {
		t.Skipf("Postgres not available: %v", err)
	}

	store := NewEventStore(pool)
	require.NoError(t, store.EnsureSchema(ctx))

	cleanup := func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM liquidity_events WHERE tx_signature LIKE 'test-%'`)
		pool.Close()
	}
	return store, cleanup
}

func testEvent(sig string, at time.Time) *models.LiquidityEvent {
	return &models.LiquidityEvent{
		Signature:      sig,
		EventType:      models.EventTypeAdd,
		InstructionTag: 3,
		BaseAmountIn:   1_000_000,
		QuoteAmountIn:  2_000_000,
		FixedSide:      models.FixedSideBase,
		LiquiditySOL:   0.002,
		CapturedAt:     at,
		Pool: &models.PoolSnapshot{
			AmmID:    "amm-test",
			CoinMint: "mint-test",
		},
	}
}

func TestEventStoreInsertAndFetch(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	sig := fmt.Sprintf("test-%d", time.Now().UnixNano())

	event := testEvent(sig, time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, store.InsertEvent(ctx, event))

	got, err := store.EventBySignature(ctx, sig)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, event.BaseAmountIn, got.BaseAmountIn)
	assert.Equal(t, event.QuoteAmountIn, got.QuoteAmountIn)
	assert.Equal(t, event.FixedSide, got.FixedSide)
	require.NotNil(t, got.Pool)
	assert.Equal(t, "mint-test", got.Pool.CoinMint)
}

func TestEventStoreDuplicateSignature(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	sig := fmt.Sprintf("test-dup-%d", time.Now().UnixNano())

	require.NoError(t, store.InsertEvent(ctx, testEvent(sig, time.Now())))
	err := store.InsertEvent(ctx, testEvent(sig, time.Now()))
	assert.ErrorIs(t, err, storage.ErrDuplicateEvent)
}

func TestEventStoreRecentOrdering(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)
	older := fmt.Sprintf("test-old-%d", base.UnixNano())
	newer := fmt.Sprintf("test-new-%d", base.UnixNano())

	require.NoError(t, store.InsertEvent(ctx, testEvent(older, base.Add(-time.Hour))))
	require.NoError(t, store.InsertEvent(ctx, testEvent(newer, base)))

	events, err := store.RecentEvents(ctx, 100)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(events), 2)

	var olderIdx, newerIdx int
	for i, e := range events {
		switch e.Signature {
		case older:
			olderIdx = i
		case newer:
			newerIdx = i
		}
	}
	assert.Less(t, newerIdx, olderIdx)
}

func TestEventStoreMissingSignature(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	got, err := store.EventBySignature(context.Background(), "test-never-inserted")
	require.NoError(t, err)
	assert.Nil(t, got)
}
