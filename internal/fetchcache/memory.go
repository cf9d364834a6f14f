package fetchcache

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend keeps entries for the lifetime of the process.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]Entry)}
}

func (m *MemoryBackend) Name() string { return "memory" }

func (m *MemoryBackend) Load(_ context.Context, key string) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	return entry, ok, nil
}

func (m *MemoryBackend) Store(_ context.Context, entries map[string]Entry, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, entry := range entries {
		m.entries[key] = entry
	}
	return nil
}

func (m *MemoryBackend) Clear(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.entries)
	m.entries = make(map[string]Entry)
	return n, nil
}

func (m *MemoryBackend) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries), nil
}

func (m *MemoryBackend) Close() error { return nil }
