package memory

import (
	"fmt"
	"strings"
	"sync"
)

// Compile-time interface check.
var _ Store = (*InMemoryStore)(nil)

// InMemoryStore is a naive process local Store. Search is a linear scan with
// case insensitive substring matching; entries come back in insertion order.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	nextID  int
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Save appends a new entry with a generated incremental id.
func (s *InMemoryStore) Save(content string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := fmt.Sprintf("mem_%d", s.nextID)
	s.nextID++

	s.entries = append(s.entries, Entry{ID: id, Content: content})

	return id, nil
}

// Search scans entries for a case insensitive substring match.
func (s *InMemoryStore) Search(query string, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(query)

	results := make([]Entry, 0, limit)
	for _, entry := range s.entries {
		if len(results) >= limit {
			break
		}
		if needle == "" || strings.Contains(strings.ToLower(entry.Content), needle) {
			results = append(results, entry)
		}
	}

	return results, nil
}

// Delete removes an entry by id.
func (s *InMemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, entry := range s.entries {
		if entry.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}

	return fmt.Errorf("memory %q not found", id)
}
