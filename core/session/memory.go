package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions and callbacks in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[int64]*Session
	callbacks map[string]CallbackRef
	now       func() time.Time
}

var _ Backend = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:  make(map[int64]*Session),
		callbacks: make(map[string]CallbackRef),
		now:       time.Now,
	}
}

// GetOrCreate implements Store.
func (m *MemoryStore) GetOrCreate(_ context.Context, userID, chatID int64) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		if chatID != 0 {
			s.ChatID = chatID
		}
		return *s, nil
	}
	s := New(userID, chatID, m.now())
	m.sessions[userID] = &s
	return s, nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, userID int64) (Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	if !ok {
		return Session{}, false, nil
	}
	return *s, true, nil
}

// Update implements Store. fn runs under the store lock and must not call back into it.
func (m *MemoryStore) Update(_ context.Context, userID int64, fn func(*Session) error) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[userID]
	if !ok {
		return Session{}, ErrNotFound
	}
	next := *cur
	if err := fn(&next); err != nil {
		return *cur, err
	}
	next.UserID = userID
	m.sessions[userID] = &next
	return next, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

// DeleteIdle implements Store.
func (m *MemoryStore) DeleteIdle(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.LastActivity.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// PutCallback implements CallbackStore.
func (m *MemoryStore) PutCallback(_ context.Context, ref CallbackRef) error {
	if ref.CreatedAt.IsZero() {
		ref.CreatedAt = m.now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks[ref.CallbackID] = ref
	return nil
}

// LookupCallback implements CallbackStore.
func (m *MemoryStore) LookupCallback(_ context.Context, callbackID string) (CallbackRef, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ref, ok := m.callbacks[callbackID]
	return ref, ok, nil
}

// DeleteCallbacksBefore implements CallbackStore.
func (m *MemoryStore) DeleteCallbacksBefore(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, ref := range m.callbacks {
		if ref.CreatedAt.Before(cutoff) {
			delete(m.callbacks, id)
			n++
		}
	}
	return n, nil
}
