package session

import (
	"context"
	"sync"
)

// Store persists sessions by key and provides per-action locks that keep
// two instances from running the same action of one session in parallel.
type Store interface {
	Load(ctx context.Context, key Key) (Session, bool, error)
	Save(ctx context.Context, s Session) error
	Delete(ctx context.Context, key Key) error
	// Acquire takes the named lock. ok is false when another holder has it.
	// release must be called once the action finishes.
	Acquire(ctx context.Context, name string) (release func(), ok bool, err error)
}

// MemoryStore is a process-local Store for tests and single-instance runs.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	locks    map[string]struct{}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
		locks:    make(map[string]struct{}),
	}
}

// Load returns a copy of the stored session.
func (m *MemoryStore) Load(_ context.Context, key Key) (Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key.String()]
	return s, ok, nil
}

// Save stores s under its key.
func (m *MemoryStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Key().String()] = s
	return nil
}

// Delete removes the session.
func (m *MemoryStore) Delete(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key.String())
	return nil
}

// Acquire takes a non-blocking lock.
func (m *MemoryStore) Acquire(_ context.Context, name string) (func(), bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[name]; held {
		return nil, false, nil
	}
	m.locks[name] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.locks, name)
		})
	}, true, nil
}
