package store

import (
	"context"
	"sync"

	"wedding-guestbot/internal/engine"
)

// MemoryStore is an in-memory engine.SessionStore for tests and development.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*engine.Session
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*engine.Session)}
}

// Get returns a copy of the stored session, or (nil, nil) when absent.
func (m *MemoryStore) Get(_ context.Context, subjectID string) (*engine.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[subjectID]
	if !ok {
		return nil, nil
	}
	return sess.Clone(), nil
}

// Put stores a copy of the session, replacing any previous one.
func (m *MemoryStore) Put(_ context.Context, sess *engine.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[sess.SubjectID] = sess.Clone()
	return nil
}

// Delete removes the subject's session if present.
func (m *MemoryStore) Delete(_ context.Context, subjectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, subjectID)
	return nil
}

// Count reports how many sessions exist. Used by the operator CLI.
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}
