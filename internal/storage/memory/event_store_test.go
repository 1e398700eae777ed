package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raydium-lp-sniper/internal/models"
	"raydium-lp-sniper/internal/storage"
)

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
	}
}

func TestInsertEventRejectsDuplicate(t *testing.T) {
	s := NewEventStore()
	ctx := context.Background()

	require.NoError(t, s.InsertEvent(ctx, testEvent("sig-1", time.Now())))
	err := s.InsertEvent(ctx, testEvent("sig-1", time.Now()))
	assert.ErrorIs(t, err, storage.ErrDuplicateEvent)
}

func TestRecentEventsNewestFirst(t *testing.T) {
	s := NewEventStore()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.InsertEvent(ctx, testEvent("sig-a", base)))
	require.NoError(t, s.InsertEvent(ctx, testEvent("sig-b", base.Add(time.Minute))))
	require.NoError(t, s.InsertEvent(ctx, testEvent("sig-c", base.Add(2*time.Minute))))

	events, err := s.RecentEvents(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "sig-c", events[0].Signature)
	assert.Equal(t, "sig-b", events[1].Signature)
}

func TestEventBySignature(t *testing.T) {
	s := NewEventStore()
	ctx := context.Background()

	event := testEvent("sig-x", time.Now())
	event.Pool = &models.PoolSnapshot{AmmID: "amm", CoinMint: "mint"}
	require.NoError(t, s.InsertEvent(ctx, event))

	got, err := s.EventBySignature(ctx, "sig-x")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "mint", got.Pool.CoinMint)

	missing, err := s.EventBySignature(ctx, "sig-missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestInsertEventStoresCopy(t *testing.T) {
	s := NewEventStore()
	ctx := context.Background()

	event := testEvent("sig-copy", time.Now())
	require.NoError(t, s.InsertEvent(ctx, event))
	event.BaseAmountIn = 0

	got, err := s.EventBySignature(ctx, "sig-copy")
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), got.BaseAmountIn)
}
