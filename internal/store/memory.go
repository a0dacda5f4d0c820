package store

import (
	"sync"
)

// Memory is an in-memory store for testing and for runs without a database.
type Memory struct {
	mu       sync.RWMutex
	entries  []Entry
	metadata map[string]string
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{
		metadata: make(map[string]string),
	}
}

// Record appends an entry.
func (m *Memory) Record(e Entry) (Entry, error) {
	e = prepare(e)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return e, nil
}

// History returns entries newest first.
func (m *Memory) History(session string, limit int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Entry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if session != "" && m.entries[i].Session != session {
			continue
		}
		out = append(out, m.entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Clear removes entries for a session, or all entries.
func (m *Memory) Clear(session string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session == "" {
		m.entries = nil
		return nil
	}
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.Session != session {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	return nil
}

// Close is a no-op for memory store.
func (m *Memory) Close() error {
	return nil
}

// GetMetadata retrieves a metadata value by key.
func (m *Memory) GetMetadata(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metadata[key], nil
}

// SetMetadata stores a metadata value by key.
func (m *Memory) SetMetadata(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata[key] = value
	return nil
}
