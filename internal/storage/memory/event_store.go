package memory

import (
	"context"
	"sort"
	"sync"

	"raydium-lp-sniper/internal/models"
	"raydium-lp-sniper/internal/storage"
)

// EventStore is an in-memory implementation of storage.EventStore, used in
// tests and dry runs where no database is available.
type EventStore struct {
	mu   sync.RWMutex
	data map[string]*models.LiquidityEvent // keyed by tx signature
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{
		data: make(map[string]*models.LiquidityEvent),
	}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

// InsertEvent records one event. Returns ErrDuplicateEvent if the signature
// is already known.
func (s *EventStore) InsertEvent(_ context.Context, event *models.LiquidityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[event.Signature]; exists {
		return storage.ErrDuplicateEvent
	}

	// Store a copy to prevent external mutation
	eventCopy := *event
	if event.Pool != nil {
		poolCopy := *event.Pool
		eventCopy.Pool = &poolCopy
	}
	s.data[event.Signature] = &eventCopy
	return nil
}

// RecentEvents returns up to limit events, newest first.
func (s *EventStore) RecentEvents(_ context.Context, limit int) ([]*models.LiquidityEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]*models.LiquidityEvent, 0, len(s.data))
	for _, e := range s.data {
		eventCopy := *e
		events = append(events, &eventCopy)
	}

	sort.Slice(events, func(i, j int) bool {
		if !events[i].CapturedAt.Equal(events[j].CapturedAt) {
			return events[i].CapturedAt.After(events[j].CapturedAt)
		}
		return events[i].Signature > events[j].Signature
	})

	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// EventBySignature looks up one event, or (nil, nil) when absent.
func (s *EventStore) EventBySignature(_ context.Context, signature string) (*models.LiquidityEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.data[signature]
	if !exists {
		return nil, nil
	}
	eventCopy := *e
	return &eventCopy, nil
}

// Close is a no-op for the in-memory store.
func (s *EventStore) Close() error {
	return nil
}
