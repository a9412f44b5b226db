package session

import (
	"context"
	"errors"
	"sync"
)

// Reader exposes the current session to the route guard and the API client.
type Reader interface {
	Current(ctx context.Context) (*Session, error)
}

// Store persists the session. Establish and Clear write or remove all
// entries at once; Current reads storage on every call.
type Store interface {
	Reader
	Establish(ctx context.Context, sess Session) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the durable entries in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

func (m *MemoryStore) Establish(_ context.Context, sess Session) error {
	entries, err := sess.Entries()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = entries
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]string)
	return nil
}

func (m *MemoryStore) Current(_ context.Context) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return FromEntries(m.entries)
}

// Set writes a single raw entry. It exists so tests can reproduce storage
// that was tampered with or only partially written.
func (m *MemoryStore) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
}

// Exists reports whether a complete session is stored.
func Exists(ctx context.Context, r Reader) bool {
	_, err := r.Current(ctx)
	return err == nil
}

// IsAbsent reports whether err means "not logged in".
func IsAbsent(err error) bool {
	return errors.Is(err, ErrNoSession)
}
