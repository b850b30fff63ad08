package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/giygas/rxcomposer/interfaces"
)

var _ interfaces.KVStore = (*MemoryStore)(nil)

// ErrUnavailable is returned by a MemoryStore switched to failing mode.
var ErrUnavailable = errors.New("store unavailable")

// MemoryStore is a process-local store, used for --ephemeral sessions and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
	failing bool
	writes  int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

// SetFailing makes every subsequent call fail with ErrUnavailable.
func (m *MemoryStore) SetFailing(failing bool) {
	m.mu.Lock()
	m.failing = failing
	m.mu.Unlock()
}

// Writes returns the number of successful Set calls.
func (m *MemoryStore) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failing {
		return nil, ErrUnavailable
	}
	v, ok := m.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return ErrUnavailable
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.records[key] = v
	m.writes++
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return ErrUnavailable
	}
	delete(m.records, key)
	return nil
}

func (m *MemoryStore) Ping(context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failing {
		return ErrUnavailable
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }
