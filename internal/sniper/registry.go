package sniper

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrSessionNotFound is returned when a handle resolves to no live session.
var ErrSessionNotFound = errors.New("session not found")

// SessionInfo is a point-in-time view of one session for API responses.
type SessionInfo struct {
	ID        string          `json:"id"`
	Mint      string          `json:"mint"`
	Phase     Phase           `json:"phase"`
	LastPrice decimal.Decimal `json:"last_price"`
	CreatedAt time.Time       `json:"created_at"`
}

// RegistryConfig carries the registry's shared session dependencies.
type RegistryConfig struct {
	PollInterval time.Duration
	Oracle       PriceOracle
	Trader       Trader
	Ticks        TickRecorder
	Logger       *logrus.Logger
}

// Registry owns all live sessions and hands out opaque handles. Closed
// sessions are reaped lazily on access.
type Registry struct {
	cfg RegistryConfig

	mu       sync.RWMutex
	sessions map[string]*registryEntry
	closed   bool
}

type registryEntry struct {
	session   *Session
	createdAt time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Registry{
		cfg:      cfg,
		sessions: make(map[string]*registryEntry),
	}
}

// AddSession creates and starts a session for mint, returning its handle.
// buyAmount may be zero; the session then watches without a position until
// SetBuyAmount arms it. A buy failure still returns the handle so the
// caller can retry, alongside the wrapped error.
func (r *Registry) AddSession(ctx context.Context, mint string, buyAmount uint64, sellTarget decimal.Decimal) (string, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", ErrSessionClosed
	}

	id := uuid.NewString()
	session := NewSession(SessionConfig{
		ID:           id,
		Mint:         mint,
		PollInterval: r.cfg.PollInterval,
		Oracle:       r.cfg.Oracle,
		Trader:       r.cfg.Trader,
		Ticks:        r.cfg.Ticks,
		Logger:       r.cfg.Logger,
	})
	session.buyAmount = buyAmount
	session.sellTarget = sellTarget
	r.sessions[id] = &registryEntry{session: session, createdAt: time.Now().UTC()}
	r.mu.Unlock()

	err := session.Start(ctx)

	r.cfg.Logger.WithFields(logrus.Fields{
		"session": id,
		"mint":    mint,
	}).Info("session registered")

	return id, err
}

func (r *Registry) lookup(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return entry.session, nil
}

// SetBuyAmount updates the buy size on a live session.
func (r *Registry) SetBuyAmount(ctx context.Context, id string, amount uint64) error {
	session, err := r.lookup(id)
	if err != nil {
		return err
	}
	return session.SetBuyAmount(ctx, amount)
}

// SetSellTarget updates the sell trigger on a live session.
func (r *Registry) SetSellTarget(id string, target decimal.Decimal) error {
	session, err := r.lookup(id)
	if err != nil {
		return err
	}
	return session.SetSellTarget(target)
}

// Session returns the info view for one handle.
func (r *Registry) Session(id string) (*SessionInfo, error) {
	r.mu.RLock()
	entry, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return infoOf(entry), nil
}

// Sessions lists all sessions, reaping closed ones first.
func (r *Registry) Sessions() []*SessionInfo {
	r.reap()

	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]*SessionInfo, 0, len(r.sessions))
	for _, entry := range r.sessions {
		infos = append(infos, infoOf(entry))
	}
	return infos
}

// Cancel stops one session and removes it from the registry.
func (r *Registry) Cancel(id string) error {
	r.mu.Lock()
	entry, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	entry.session.Stop()
	return nil
}

// Close stops every session and rejects further registrations.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	entries := make([]*registryEntry, 0, len(r.sessions))
	for _, entry := range r.sessions {
		entries = append(entries, entry)
	}
	r.sessions = make(map[string]*registryEntry)
	r.mu.Unlock()

	for _, entry := range entries {
		entry.session.Stop()
		<-entry.session.Done()
	}
}

// reap drops sessions whose loops have finished.
func (r *Registry) reap() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, entry := range r.sessions {
		if entry.session.Phase() == PhaseClosed {
			delete(r.sessions, id)
		}
	}
}

func infoOf(entry *registryEntry) *SessionInfo {
	return &SessionInfo{
		ID:        entry.session.ID(),
		Mint:      entry.session.Mint(),
		Phase:     entry.session.Phase(),
		LastPrice: entry.session.LastPrice(),
		CreatedAt: entry.createdAt,
	}
}
