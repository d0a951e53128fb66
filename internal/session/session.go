package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"standings-backend/internal/models"
	"standings-backend/internal/store"
)

var ErrUnknownTournament = errors.New("tournament not found")

// Session is the in-memory domain state of one authenticated identity.
// All reads and writes go through the session mutex, so handlers touching
// the same session run one at a time.
type Session struct {
	ID       string
	Username string

	mu          sync.Mutex
	store       store.Store
	logger      *zap.Logger
	tournaments []models.Tournament
	activeID    string
	operator    bool
	recovered   bool
}

// Tx is the mutable view handed to Update. Tournaments is a private deep
// copy; setting Active selects a tournament once the write succeeds.
type Tx struct {
	Tournaments []models.Tournament
	Active      string
}

// Load populates a session from the persisted value for username. A
// missing value seeds the default dataset. A value that fails to decode is
// replaced in memory by the seed and the session is marked recovered; the
// stored bytes are left alone until the next commit.
func Load(ctx context.Context, st store.Store, id, username string, logger *zap.Logger) (*Session, error) {
	s := &Session{
		ID:       id,
		Username: username,
		store:    st,
		logger:   logger.With(zap.String("session", id), zap.String("username", username)),
	}

	key := store.Key(username)
	data, err := st.Get(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.tournaments = models.DefaultTournaments()
		s.logger.Info("no persisted state, seeded defaults")
	case err != nil:
		return nil, fmt.Errorf("loading %s: %w", key, err)
	default:
		var ts []models.Tournament
		if err := json.Unmarshal(data, &ts); err != nil {
			s.logger.Warn("persisted state is malformed, reseeding", zap.Error(err))
			s.tournaments = models.DefaultTournaments()
			s.recovered = true
		} else {
			s.tournaments = models.Normalize(ts)
		}
	}
	s.resolveActive()
	return s, nil
}

// resolveActive keeps the active pointer on an existing tournament,
// falling back to the first one, or "" when there are none.
func (s *Session) resolveActive() {
	if models.FindTournament(s.tournaments, s.activeID) >= 0 {
		return
	}
	if len(s.tournaments) == 0 {
		s.activeID = ""
		return
	}
	s.activeID = s.tournaments[0].ID
}

// Tournaments returns a deep copy of the current list.
func (s *Session) Tournaments() []models.Tournament {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneAll(s.tournaments)
}

func (s *Session) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Tournament returns a copy of the tournament with the given id; an empty
// id selects the active tournament.
func (s *Session) Tournament(id string) (models.Tournament, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		id = s.activeID
	}
	i := models.FindTournament(s.tournaments, id)
	if i < 0 {
		return models.Tournament{}, ErrUnknownTournament
	}
	return s.tournaments[i].Clone(), nil
}

// Select moves the active pointer.
func (s *Session) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if models.FindTournament(s.tournaments, id) < 0 {
		return ErrUnknownTournament
	}
	s.activeID = id
	return nil
}

// Recovered reports whether Load discarded malformed persisted data.
func (s *Session) Recovered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recovered
}

// Update applies fn to a copy of the tournament list and commits it: the
// whole list is serialized and written under the identity key before it
// replaces the in-memory state. If fn or the write fails nothing changes.
func (s *Session) Update(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{Tournaments: models.CloneAll(s.tournaments), Active: s.activeID}
	if err := fn(tx); err != nil {
		return err
	}
	next := models.Normalize(tx.Tournaments)

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encoding tournaments: %w", err)
	}
	if err := s.store.Set(ctx, store.Key(s.Username), data); err != nil {
		s.logger.Error("persisting tournaments failed", zap.Error(err))
		return fmt.Errorf("persisting tournaments: %w", err)
	}

	s.tournaments = next
	s.activeID = tx.Active
	s.recovered = false
	s.resolveActive()
	return nil
}

// UnlockOperator grants operator capability for this session until the
// console is closed or the session ends.
func (s *Session) UnlockOperator() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operator = true
}

func (s *Session) LockOperator() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operator = false
}

func (s *Session) IsOperator() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.operator
}

// discard drops the in-memory state. The persisted value is untouched.
func (s *Session) discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tournaments = nil
	s.activeID = ""
	s.operator = false
}
