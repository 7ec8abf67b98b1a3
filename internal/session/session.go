// Package session owns the mapping from user identity to conversation
// session. At most one live session exists per user id; resolving a user with
// no live session creates one, and resetting deletes it so the next message
// starts clean.
package session

import "time"

// Turn is one exchange entry in a session's conversational state.
type Turn struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the metadata for one conversation.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
	LastActive time.Time `json:"lastActive"`
}

// Idle reports whether the session has been inactive for at least ttl.
func (s *Session) Idle(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LastActive) >= ttl
}
