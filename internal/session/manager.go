package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrCreate indicates the underlying store could not create a session. The
// caller must abort the turn without mutating the user mapping.
var ErrCreate = errors.New("session create failed")

// Manager maps user ids to live sessions on top of a Store.
//
// Creation is serialized per user id: two near-simultaneous messages from the
// same user resolve to one session, while distinct users never contend on a
// shared lock.
type Manager struct {
	store Store

	mu     sync.Mutex
	users  map[string]*userSlot
	owners map[string]string // session id -> user id, for Delete
}

type userSlot struct {
	mu        sync.Mutex
	sessionID string
}

// NewManager creates a Manager backed by store.
func NewManager(store Store) *Manager {
	return &Manager{
		store:  store,
		users:  make(map[string]*userSlot),
		owners: make(map[string]string),
	}
}

// slot returns the per-user lock slot, creating it on first use. The global
// lock guards only the two maps, never store I/O, and is never held while
// acquiring a slot lock.
func (m *Manager) slot(userID string) *userSlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.users[userID]
	if !ok {
		s = &userSlot{}
		m.users[userID] = s
	}
	return s
}

func (m *Manager) setOwner(sessionID, userID string) {
	m.mu.Lock()
	m.owners[sessionID] = userID
	m.mu.Unlock()
}

func (m *Manager) clearOwner(sessionID string) {
	m.mu.Lock()
	delete(m.owners, sessionID)
	m.mu.Unlock()
}

// Resolve returns the user's live session, creating one if none exists.
// A store failure during creation leaves the mapping untouched and is
// reported as ErrCreate.
func (m *Manager) Resolve(ctx context.Context, userID string) (*Session, error) {
	slot := m.slot(userID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.sessionID != "" {
		sess, err := m.store.Get(ctx, slot.sessionID)
		switch {
		case err == nil:
			if terr := m.store.Touch(ctx, sess.ID, time.Now().UTC()); terr != nil {
				slog.Warn("failed to touch session", "session", sess.ID, "err", terr)
			}
			return sess, nil
		case errors.Is(err, ErrNotFound):
			// Stale mapping (store-side expiry); fall through and recreate.
			m.clearOwner(slot.sessionID)
			slot.sessionID = ""
		default:
			return nil, fmt.Errorf("resolve session for %s: %w", userID, err)
		}
	}

	sess, err := m.store.Create(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreate, err)
	}
	slot.sessionID = sess.ID
	m.setOwner(sess.ID, userID)
	slog.Info("created session", "user", userID, "session", sess.ID)
	return sess, nil
}

// Scratch creates a session outside the user mapping, for one-off API calls
// that delete it again before returning.
func (m *Manager) Scratch(ctx context.Context, userID string) (*Session, error) {
	sess, err := m.store.Create(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreate, err)
	}
	return sess, nil
}

// Reset deletes the user's current session, if any, and clears the mapping.
// Resetting a user with no session is a no-op. Store-side deletion is
// best-effort; a failure is logged, never propagated.
func (m *Manager) Reset(ctx context.Context, userID string) {
	slot := m.slot(userID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.sessionID == "" {
		return
	}
	if err := m.store.Delete(ctx, slot.sessionID); err != nil {
		slog.Error("failed to delete session on reset", "session", slot.sessionID, "err", err)
	} else {
		slog.Info("deleted session on reset", "user", userID, "session", slot.sessionID)
	}
	m.clearOwner(slot.sessionID)
	slot.sessionID = ""
}

// Delete removes underlying session state best-effort and clears any user
// mapping pointing at it. Failure is logged, not returned.
//
// Only the owning user's slot is touched, and never while the global lock is
// held, so a slow store call on one user's slot cannot stall anyone else.
// Sessions created through Scratch have no owner and skip the slot entirely.
func (m *Manager) Delete(ctx context.Context, sessionID string) {
	if err := m.store.Delete(ctx, sessionID); err != nil {
		slog.Error("failed to delete session", "session", sessionID, "err", err)
	}

	m.mu.Lock()
	userID, ok := m.owners[sessionID]
	if ok {
		delete(m.owners, sessionID)
	}
	slot := m.users[userID]
	m.mu.Unlock()

	if !ok || slot == nil {
		return
	}
	slot.mu.Lock()
	if slot.sessionID == sessionID {
		slot.sessionID = ""
	}
	slot.mu.Unlock()
}

// History returns the session's conversational context.
func (m *Manager) History(ctx context.Context, sessionID string) ([]Turn, error) {
	return m.store.History(ctx, sessionID)
}

// Remember appends the turn's user text and assistant reply to the session
// state. Failures are logged; a conversation is never failed over lost history.
func (m *Manager) Remember(ctx context.Context, sessionID, userText, reply string) {
	now := time.Now().UTC()
	err := m.store.AppendTurns(ctx, sessionID,
		Turn{Role: "user", Content: userText, Timestamp: now},
		Turn{Role: "assistant", Content: reply, Timestamp: now},
	)
	if err != nil {
		slog.Warn("failed to record turns", "session", sessionID, "err", err)
	}
}

// CleanupIdle deletes sessions inactive for at least ttl and returns how many
// were removed.
func (m *Manager) CleanupIdle(ctx context.Context, ttl time.Duration) (int, error) {
	sessions, err := m.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}

	now := time.Now().UTC()
	removed := 0
	for _, sess := range sessions {
		if sess.Idle(now, ttl) {
			m.Delete(ctx, sess.ID)
			removed++
		}
	}
	return removed, nil
}

// Close releases the underlying store.
func (m *Manager) Close() error { return m.store.Close() }
