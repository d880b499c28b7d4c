// Package memory holds session-scoped conversation history. Backends are
// injected behind the Store interface: an in-memory map for tests and
// small deployments, sqlite for durable history.
package memory

import (
	"strings"
	"sync"
	"time"
)

// Turn is one user/assistant exchange. Turns are immutable once appended;
// At is used only for eviction, ordering comes from append order.
type Turn struct {
	User      string
	Assistant string
	At        time.Time
}

// Store is the capability interface for conversation memory. Get returns
// the turns of a session in append order, or an empty slice for an unseen
// session. A single logical writer per session is assumed; concurrent
// sessions must not corrupt each other.
type Store interface {
	Get(sessionID string) []Turn
	Append(sessionID, user, assistant string)
}

// HistoryText renders turns into the plain-text form embedded in prompts.
func HistoryText(turns []Turn) string {
	var b strings.Builder
	for _, t := range turns {
		b.WriteString("User: ")
		b.WriteString(t.User)
		b.WriteString("\nAssistant: ")
		b.WriteString(t.Assistant)
		b.WriteString("\n")
	}
	return b.String()
}

type session struct {
	turns    []Turn
	lastSeen time.Time
}

// InMemoryStore keeps history in a process-lifetime map. Growth is bounded
// by a session cap and a per-session TTL; without bounds the map would
// grow for the life of the process.
type InMemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]*session
	maxSessions int
	ttl         time.Duration
	now         func() time.Time
}

// NewInMemory creates a bounded in-memory store. maxSessions <= 0 disables
// the cap; ttl <= 0 disables expiry.
func NewInMemory(maxSessions int, ttl time.Duration) *InMemoryStore {
	return &InMemoryStore{
		sessions:    make(map[string]*session),
		maxSessions: maxSessions,
		ttl:         ttl,
		now:         time.Now,
	}
}

// Get returns a copy of the session's turns, oldest first.
func (s *InMemoryStore) Get(sessionID string) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return []Turn{}
	}
	// An expired session must not feed prompts even before the next
	// append sweeps it out.
	if s.ttl > 0 && s.now().Sub(sess.lastSeen) > s.ttl {
		return []Turn{}
	}
	out := make([]Turn, len(sess.turns))
	copy(out, sess.turns)
	return out
}

// Append records one exchange, evicting expired sessions and, at the cap,
// the least recently used session.
func (s *InMemoryStore) Append(sessionID, user, assistant string) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpired(now)

	sess, ok := s.sessions[sessionID]
	if !ok {
		if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
			s.evictOldest()
		}
		sess = &session{}
		s.sessions[sessionID] = sess
	}
	sess.turns = append(sess.turns, Turn{User: user, Assistant: assistant, At: now})
	sess.lastSeen = now
}

func (s *InMemoryStore) evictExpired(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.sessions, id)
		}
	}
}

func (s *InMemoryStore) evictOldest() {
	var oldestID string
	var oldest time.Time
	first := true
	for id, sess := range s.sessions {
		if first || sess.lastSeen.Before(oldest) {
			oldestID, oldest = id, sess.lastSeen
			first = false
		}
	}
	if oldestID != "" {
		delete(s.sessions, oldestID)
	}
}
