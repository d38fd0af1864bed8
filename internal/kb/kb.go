// Package kb provides the in-process implementation of the per-scan
// knowledge base handle. The knowledge-base store engine itself is an
// external collaborator; this package models only the handle surface the
// execution path needs.
package kb

import (
	"sync"
)

// Memory is an in-memory knowledge base. Each execution owns its own handle;
// handles are never shared across execution units.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory returns an empty in-memory knowledge base.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get returns the value for a key.
func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Set stores a value under a key.
func (m *Memory) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// Reset rebinds the handle to the current execution. For the in-memory
// implementation this discards state carried over from the parent process;
// a connection-backed implementation would reconnect instead.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]string)
	return nil
}
