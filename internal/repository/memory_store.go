package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"brief-agent/internal/domain"
)

// DefaultMaxSessions bounds the in-memory store.
const DefaultMaxSessions = 10000

// MemoryStore is an in-process session store with lazy TTL expiry and a
// size cap. When full, expired sessions are dropped first, then the session
// closest to expiry. It is safe for concurrent use; sessions are copied in and
// out so callers never share state through it.
type MemoryStore struct {
	mu         sync.Mutex
	sessions   map[string]*domain.Session
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewMemoryStore creates a MemoryStore. Non-positive arguments use defaults.
func NewMemoryStore(ttl time.Duration, maxEntries int) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxSessions
	}
	return &MemoryStore{
		sessions:   make(map[string]*domain.Session),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, host domain.HostVariant, brandID, userID string) (*domain.Session, error) {
	s := domain.NewSession(newUUID(), host, brandID, userID, m.now().UTC(), m.ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(s.Clone())
	return s, nil
}

// Get returns a copy of the session, or nil when absent or expired.
func (m *MemoryStore) Get(_ context.Context, sessionID string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	if s.Expired(m.now()) {
		delete(m.sessions, sessionID)
		return nil, nil
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s *domain.Session) error {
	if s == nil || s.ID == "" {
		return errors.New("repository: Save: session id is required")
	}
	now := m.now().UTC()
	s.UpdatedAt = now
	s.ExpiresAt = now.Add(m.ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(s.Clone())
	return nil
}

// Len reports how many sessions are held, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// put stores s, evicting if needed. Caller holds m.mu.
func (m *MemoryStore) put(s *domain.Session) {
	if _, exists := m.sessions[s.ID]; !exists && len(m.sessions) >= m.maxEntries {
		m.evict()
	}
	m.sessions[s.ID] = s
}

func (m *MemoryStore) evict() {
	now := m.now()
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
		}
	}
	if len(m.sessions) < m.maxEntries {
		return
	}
	var oldestID string
	var oldest time.Time
	for id, s := range m.sessions {
		if oldestID == "" || s.ExpiresAt.Before(oldest) {
			oldestID, oldest = id, s.ExpiresAt
		}
	}
	delete(m.sessions, oldestID)
}
