package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"raydium-lp-sniper/internal/models"
	"raydium-lp-sniper/internal/storage"
)

// EventStore implements storage.EventStore using PostgreSQL. Lamport
// amounts are stored as NUMERIC(20,0) text to avoid int64 overflow; the
// pool snapshot goes to a JSONB column.
type EventStore struct {
	pool *Pool
}

// NewEventStore creates a new EventStore.
func NewEventStore(pool *Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

// EnsureSchema creates the liquidity_events table if it does not exist.
func (s *EventStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS liquidity_events (
			tx_signature    TEXT PRIMARY KEY,
			event_type      TEXT NOT NULL,
			instruction_tag SMALLINT NOT NULL,
			base_amount_in  NUMERIC(20,0) NOT NULL DEFAULT 0,
			quote_amount_in NUMERIC(20,0) NOT NULL DEFAULT 0,
			amount_in       NUMERIC(20,0) NOT NULL DEFAULT 0,
			fixed_side      TEXT NOT NULL DEFAULT '',
			liquidity_sol   DOUBLE PRECISION NOT NULL DEFAULT 0,
			pool            JSONB,
			captured_at     TIMESTAMPTZ NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_liquidity_events_captured_at
			ON liquidity_events (captured_at DESC);
	`
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure liquidity_events schema: %w", err)
	}
	return nil
}

// InsertEvent records one event. Returns storage.ErrDuplicateEvent when the
// transaction signature was already recorded.
func (s *EventStore) InsertEvent(ctx context.Context, event *models.LiquidityEvent) error {
	var poolJSON []byte
	if event.Pool != nil {
		b, err := json.Marshal(event.Pool)
		if err != nil {
			return fmt.Errorf("marshal pool snapshot: %w", err)
		}
		poolJSON = b
	}

	query := `
		INSERT INTO liquidity_events (
			tx_signature, event_type, instruction_tag,
			base_amount_in, quote_amount_in, amount_in,
			fixed_side, liquidity_sol, pool, captured_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.pool.Exec(ctx, query,
		event.Signature,
		event.EventType,
		int16(event.InstructionTag),
		strconv.FormatUint(event.BaseAmountIn, 10),
		strconv.FormatUint(event.QuoteAmountIn, 10),
		strconv.FormatUint(event.AmountIn, 10),
		event.FixedSide,
		event.LiquiditySOL,
		poolJSON,
		event.CapturedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateEvent
		}
		return fmt.Errorf("insert liquidity event: %w", err)
	}
	return nil
}

// RecentEvents returns up to limit events, newest first.
func (s *EventStore) RecentEvents(ctx context.Context, limit int) ([]*models.LiquidityEvent, error) {
	query := `
		SELECT tx_signature, event_type, instruction_tag,
		       base_amount_in::TEXT, quote_amount_in::TEXT, amount_in::TEXT,
		       fixed_side, liquidity_sol, pool, captured_at
		FROM liquidity_events
		ORDER BY captured_at DESC, tx_signature DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// EventBySignature looks up one event, or (nil, nil) when absent.
func (s *EventStore) EventBySignature(ctx context.Context, signature string) (*models.LiquidityEvent, error) {
	query := `
		SELECT tx_signature, event_type, instruction_tag,
		       base_amount_in::TEXT, quote_amount_in::TEXT, amount_in::TEXT,
		       fixed_side, liquidity_sol, pool, captured_at
		FROM liquidity_events
		WHERE tx_signature = $1
	`

	row := s.pool.QueryRow(ctx, query, signature)
	event, err := scanEvent(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get event by signature: %w", err)
	}
	return event, nil
}

// Close releases the underlying pool.
func (s *EventStore) Close() error {
	s.pool.Close()
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*models.LiquidityEvent, error) {
	var (
		event    models.LiquidityEvent
		tag      int16
		base     string
		quote    string
		amount   string
		poolJSON []byte
	)

	err := row.Scan(
		&event.Signature,
		&event.EventType,
		&tag,
		&base,
		&quote,
		&amount,
		&event.FixedSide,
		&event.LiquiditySOL,
		&poolJSON,
		&event.CapturedAt,
	)
	if err != nil {
		return nil, err
	}

	event.InstructionTag = uint8(tag)
	if event.BaseAmountIn, err = strconv.ParseUint(base, 10, 64); err != nil {
		return nil, fmt.Errorf("parse base_amount_in: %w", err)
	}
	if event.QuoteAmountIn, err = strconv.ParseUint(quote, 10, 64); err != nil {
		return nil, fmt.Errorf("parse quote_amount_in: %w", err)
	}
	if event.AmountIn, err = strconv.ParseUint(amount, 10, 64); err != nil {
		return nil, fmt.Errorf("parse amount_in: %w", err)
	}
	if len(poolJSON) > 0 {
		var snap models.PoolSnapshot
		if err := json.Unmarshal(poolJSON, &snap); err != nil {
			return nil, fmt.Errorf("unmarshal pool snapshot: %w", err)
		}
		event.Pool = &snap
	}

	return &event, nil
}

func scanEvents(rows pgx.Rows) ([]*models.LiquidityEvent, error) {
	var events []*models.LiquidityEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan liquidity event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liquidity events: %w", err)
	}
	return events, nil
}
