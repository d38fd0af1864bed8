// Package prefs holds the process-wide scanner preference store and the
// registrar that merges plugin-declared preferences into it.
package prefs

import (
	"sync"
)

// Store is the process-wide preference map. It is populated incrementally as
// plugins are loaded and read concurrently by parallel executions, so access
// is mutex-guarded. There is no delete: preferences are only added or
// overwritten.
//
// The store is an explicit injected object rather than ambient package state
// so tests can run against isolated instances.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewStore returns an empty preference store.
func NewStore() *Store {
	return &Store{values: make(map[string]string)}
}

// Set stores a value under a key, overwriting any existing value.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Get returns the value for a key.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// GetBool interprets the value for a key as a boolean. Absent keys and
// unrecognized values are false; "yes", "true" and "1" are true.
func (s *Store) GetBool(key string) bool {
	v, ok := s.Get(key)
	if !ok {
		return false
	}
	switch v {
	case "yes", "true", "1":
		return true
	}
	return false
}

// Len returns the number of stored preferences.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Snapshot returns a copy of the current contents.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
