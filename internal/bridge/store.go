package bridge

import (
	"sync"
)

// Store holds at most one live session handle. Readers receive their own
// clone so a concurrent replace or clear never closes a client in use.
type Store struct {
	mu      sync.Mutex
	current *Handle
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Set publishes h, replacing and releasing any previous handle. The store
// takes ownership of h.
func (s *Store) Set(h *Handle) {
	s.mu.Lock()
	prev := s.current
	s.current = h
	s.mu.Unlock()

	if prev != nil {
		prev.Release()
	}
}

// Clear empties the store and reports whether a handle was held.
func (s *Store) Clear() bool {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.mu.Unlock()

	if prev == nil {
		return false
	}
	prev.Release()
	return true
}

// Get returns a clone of the current handle. The caller must release it.
func (s *Store) Get() (*Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, false
	}
	return s.current.Clone(), true
}

// Active reports whether a handle is held.
func (s *Store) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}
