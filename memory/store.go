package memory

// Entry is one stored memory.
type Entry struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// Store holds free-text memories. Implementations must be safe for
// concurrent use.
type Store interface {
	// Save stores the content and returns the assigned id.
	Save(content string) (string, error)
	// Search returns up to limit entries matching the query. An empty
	// query matches everything.
	Search(query string, limit int) ([]Entry, error)
	// Delete removes an entry by id.
	Delete(id string) error
}
