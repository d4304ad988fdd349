package conversation

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionID is used by callers that do not track sessions.
const DefaultSessionID = "default"

// HistoryWindow is the number of recent turns handed to advisors.
const HistoryWindow = 6

// Manager maps session ids to sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager returns a manager evicting sessions idle longer than ttl. A
// zero ttl disables eviction.
func NewManager(ttl time.Duration, opts ...Option) *Manager {
	m := &Manager{sessions: make(map[string]*Session), ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

// NewID returns a fresh session identifier.
func (m *Manager) NewID() string { return uuid.NewString() }

// Now returns the manager clock.
func (m *Manager) Now() time.Time { return m.now() }

// Get returns the session for id, creating it when absent.
func (m *Manager) Get(id string) *Session {
	if id == "" {
		id = DefaultSessionID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		s = newSession(id, m.now())
		m.sessions[id] = s
	}
	return s
}

// Reset returns the session to Idle. Unknown ids are ignored.
func (m *Manager) Reset(id string) bool {
	if id == "" {
		id = DefaultSessionID
	}
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return false
	}
	s.Lock()
	s.Reset()
	s.Unlock()
	return true
}

// Evict drops sessions idle longer than the ttl and returns their ids.
// Sessions busy with a message are skipped.
func (m *Manager) Evict() []string {
	if m.ttl <= 0 {
		return nil
	}
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	var evicted []string
	for id, s := range m.sessions {
		if !s.mu.TryLock() {
			continue
		}
		if s.idleSince(now) > m.ttl {
			delete(m.sessions, id)
			evicted = append(evicted, id)
		}
		s.mu.Unlock()
	}
	return evicted
}

// Len returns the number of tracked sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
