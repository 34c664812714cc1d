package session

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]Session
}

// NewMemoryStore constructs an in-process Store for development and tests.
func NewMemoryStore() Store {
	return &memoryStore{sessions: make(map[int64]Session)}
}

func (m *memoryStore) Get(_ context.Context, userID int64) (Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[userID]
	if !ok {
		return Session{Stage: StageIdle}, false, nil
	}
	return s.Clone(), true, nil
}

func (m *memoryStore) Set(_ context.Context, userID int64, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.sessions[userID]
	if current.Version != s.Version {
		return ErrConflict
	}
	next := s.Clone()
	next.Version = current.Version + 1
	m.sessions[userID] = next
	return nil
}

// Merge adds fields to an existing session, creating an idle one if needed.
func (m *memoryStore) Merge(_ context.Context, userID int64, fields Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.sessions[userID]
	if !ok {
		current = Session{Stage: StageIdle}
	}
	next := current.With(current.Stage, fields)
	next.Version = current.Version + 1
	m.sessions[userID] = next
	return nil
}

func (m *memoryStore) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, userID)
	return nil
}
