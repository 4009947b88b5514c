package mcp

import (
	"context"
	"fmt"
)

// ToolDescriptor describes one tool as advertised by a tool server.
type ToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
}

// CallResult is the outcome of one server-side tool invocation. IsError marks
// failures the server reported in-band; those never surface as Go errors.
type CallResult struct {
	Text    string `json:"text"`
	IsError bool   `json:"is_error"`
}

// ToolServer is the narrow protocol contract the bridge depends on.
// Implementations may hand the bridge a fresh or reused connection.
type ToolServer interface {
	// ListTools returns the tools currently advertised by the server.
	ListTools(ctx context.Context) ([]ToolDescriptor, error)

	// Call invokes the named tool with a raw JSON argument object.
	// A non-nil error means the transport failed; server-side tool failures
	// are reported via CallResult.IsError instead.
	Call(ctx context.Context, name, args string) (CallResult, error)
}

// TransportError wraps connectivity failures of the tool-server protocol.
// These bypass the loop's policy layer and fail the run, since no guardrail
// can meaningfully classify them.
type TransportError struct {
	Server string
	Op     string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mcp transport error in %s during %s: %v", e.Server, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
