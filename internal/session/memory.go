package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps sessions in process memory. It is the default backend;
// state does not survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memoryRecord
}

type memoryRecord struct {
	meta  Session
	turns []Turn
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*memoryRecord)}
}

func (s *MemoryStore) Create(ctx context.Context, userID string) (*Session, error) {
	now := time.Now().UTC()
	sess := Session{
		ID:         uuid.New().String(),
		UserID:     userID,
		CreatedAt:  now,
		LastActive: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = &memoryRecord{meta: sess}
	s.mu.Unlock()

	out := sess
	return &out, nil
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	out := rec.meta
	return &out, nil
}

func (s *MemoryStore) Touch(ctx context.Context, sessionID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	rec.meta.LastActive = at
	return nil
}

func (s *MemoryStore) AppendTurns(ctx context.Context, sessionID string, turns ...Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	rec.turns = append(rec.turns, turns...)
	return nil
}

func (s *MemoryStore) History(ctx context.Context, sessionID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]Turn, len(rec.turns))
	copy(out, rec.turns)
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, rec := range s.sessions {
		meta := rec.meta
		out = append(out, &meta)
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
