// Package storage defines the persistence contracts for liquidity events.
package storage

import (
	"context"
	"errors"

	"raydium-lp-sniper/internal/models"
)

// ErrDuplicateEvent is returned when an event with the same transaction
// signature has already been recorded.
var ErrDuplicateEvent = errors.New("duplicate event")

// EventStore persists liquidity events keyed by transaction signature.
type EventStore interface {
	// InsertEvent records one event. Inserting a signature that already
	// exists returns ErrDuplicateEvent.
	InsertEvent(ctx context.Context, event *models.LiquidityEvent) error

	// RecentEvents returns up to limit events, newest first.
	RecentEvents(ctx context.Context, limit int) ([]*models.LiquidityEvent, error)

	// EventBySignature looks up one event, or (nil, nil) when absent.
	EventBySignature(ctx context.Context, signature string) (*models.LiquidityEvent, error)

	Close() error
}
