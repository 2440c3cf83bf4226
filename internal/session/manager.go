package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session holds one authenticated operator: the backend API key plus the
// topology cache scoped to it.
type Session struct {
	ID        uuid.UUID
	Username  string
	APIKey    string
	CreatedAt time.Time

	cache *Cache
}

func (s *Session) Cache() *Cache {
	return s.cache
}

type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *Manager) Create(username, apiKey string) *Session {
	sess := &Session{
		ID:        uuid.New(),
		Username:  username,
		APIKey:    apiKey,
		CreatedAt: m.now(),
		cache:     NewCache(),
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return sess
}

func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if m.now().Sub(sess.CreatedAt) > m.ttl {
		m.Destroy(id)
		return nil, false
	}
	return sess, true
}

// Destroy ends a session and invalidates its cache as a unit.
func (m *Manager) Destroy(id uuid.UUID) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if ok {
		sess.cache.Invalidate()
	}
}
