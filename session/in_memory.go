package session

import (
	"sync"

	"github.com/hupe1980/agentloop/core"
)

// Compile-time interface check.
var _ Store = (*InMemoryStore)(nil)

// InMemoryStore is a volatile Store keeping traces in a process local map.
// Traces are cloned on the way in and out so callers cannot mutate shared
// state.
type InMemoryStore struct {
	mu     sync.RWMutex
	traces map[string]core.Trace
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{traces: make(map[string]core.Trace)}
}

// Get returns a clone of the session's trace, or an empty trace for an
// unknown id.
func (s *InMemoryStore) Get(sessionID string) (core.Trace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if trace, ok := s.traces[sessionID]; ok {
		return trace.Clone(), nil
	}

	return core.Trace{}, nil
}

// Put stores a clone of the provided trace snapshot.
func (s *InMemoryStore) Put(sessionID string, trace core.Trace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.traces[sessionID] = trace.Clone()

	return nil
}

// Append adds messages to an existing or newly created session.
func (s *InMemoryStore) Append(sessionID string, messages ...core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.traces[sessionID] = append(s.traces[sessionID], messages...)

	return nil
}

// Delete removes the session.
func (s *InMemoryStore) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.traces, sessionID)

	return nil
}
