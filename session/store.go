package session

import "github.com/hupe1980/agentloop/core"

// Store persists conversation traces keyed by session id. Implementations
// must be safe for concurrent use.
type Store interface {
	// Get returns the trace for the session, or an empty trace for an
	// unknown id.
	Get(sessionID string) (core.Trace, error)
	// Put replaces the session's trace with the given snapshot.
	Put(sessionID string, trace core.Trace) error
	// Append adds messages to the session's trace, creating it if needed.
	Append(sessionID string, messages ...core.Message) error
	// Delete removes the session. Deleting an unknown id is a no-op.
	Delete(sessionID string) error
}
