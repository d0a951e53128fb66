package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"standings-backend/internal/store"
)

// Manager tracks live sessions by id. A session outlives its token by
// nothing: once ttl has passed since Start it is no longer alive and the
// next prune drops it.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	store    store.Store
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

type entry struct {
	session *Session
	expires time.Time
}

// NewManager returns a manager whose sessions expire ttl after they start.
// A zero ttl keeps sessions until End.
func NewManager(st store.Store, ttl time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*entry),
		store:    st,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

func (m *Manager) expired(e *entry, now time.Time) bool {
	return m.ttl > 0 && !now.Before(e.expires)
}

// Start opens a new session for username and loads its state.
func (m *Manager) Start(ctx context.Context, username string) (*Session, error) {
	s, err := Load(ctx, m.store, uuid.New().String(), username, m.logger)
	if err != nil {
		return nil, err
	}

	m.Prune()
	m.mu.Lock()
	m.sessions[s.ID] = &entry{session: s, expires: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return s, nil
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[id]
	if !ok || m.expired(e, m.now()) {
		return nil, false
	}
	return e.session, true
}

// Alive reports whether id names a live session.
func (m *Manager) Alive(id string) bool {
	_, ok := m.Get(id)
	return ok
}

// End discards the session's in-memory state. It reports whether the
// session existed.
func (m *Manager) End(id string) bool {
	m.mu.Lock()
	e, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		e.session.discard()
	}
	return ok
}

// Prune ends every expired session and returns how many it dropped.
func (m *Manager) Prune() int {
	now := m.now()
	m.mu.Lock()
	var dropped []*Session
	for id, e := range m.sessions {
		if m.expired(e, now) {
			dropped = append(dropped, e.session)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range dropped {
		s.discard()
	}
	if len(dropped) > 0 {
		m.logger.Info("pruned expired sessions", zap.Int("count", len(dropped)))
	}
	return len(dropped)
}

// Run prunes expired sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			m.Prune()
		}
	}
}

// Len returns the number of tracked sessions, expired or not.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
