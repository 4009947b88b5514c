package core

import (
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"
)

// Role categorizes the author of a Message within a trace.
type Role string

const (
	// RoleUser marks caller-supplied input messages.
	RoleUser Role = "user"
	// RoleAssistant marks model-generated messages (optionally carrying tool calls).
	RoleAssistant Role = "assistant"
	// RoleTool marks tool result messages.
	RoleTool Role = "tool"
	// RoleInstruction marks system instruction messages.
	RoleInstruction Role = "instruction"
)

// ToolErrorMarker is the content of a tool result message whose underlying
// server call reported an error. The classifier detects it uniformly as
// Aborted(MCP_TOOL_ERROR) instead of the error escaping as an exception.
const ToolErrorMarker = "TOOL_ERROR"

// MetaUsedInstructions is the message metadata key recording which
// instruction variant produced an assistant message.
const MetaUsedInstructions = "used_instructions"

// ToolCall is a single tool invocation request carried by an assistant message.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON object
}

// EnsureID returns the provider-assigned call ID, or a synthesized stable
// fallback (name plus argument hash) when the provider omitted one. The
// fallback keeps dedup sets working across repeated observations of the same
// call within one run.
func (tc ToolCall) EnsureID() string {
	if tc.ID != "" {
		return tc.ID
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(tc.Arguments))

	return fmt.Sprintf("%s::%x", tc.Name, h.Sum64())
}

// Message is one entry of a trace. Exactly one of the role-specific field
// groups is populated: assistant messages may carry ToolCalls, tool messages
// carry ToolName/ToolCallID, user and instruction messages carry content only.
type Message struct {
	Role       Role              `json:"role"`
	Content    string            `json:"content,omitempty"`
	ToolCalls  []ToolCall        `json:"tool_calls,omitempty"`
	ToolName   string            `json:"tool_name,omitempty"`
	ToolCallID string            `json:"toolcall_id,omitempty"`
	Meta       map[string]string `json:"meta,omitempty"`
}

// NewUserMessage creates a caller input message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewInstructionMessage creates a system instruction message.
func NewInstructionMessage(content string) Message {
	return Message{Role: RoleInstruction, Content: content}
}

// NewAssistantMessage creates a model response message without tool calls.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewToolCallMessage creates a model response message requesting tool execution.
func NewToolCallMessage(content string, calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// NewToolResultMessage creates a successful tool result message.
func NewToolResultMessage(toolName, callID, content string) Message {
	return Message{Role: RoleTool, ToolName: toolName, ToolCallID: callID, Content: content}
}

// NewToolErrorMessage creates a tool result message carrying the error marker.
func NewToolErrorMessage(toolName, callID string) Message {
	return Message{Role: RoleTool, ToolName: toolName, ToolCallID: callID, Content: ToolErrorMarker}
}

// HasToolCalls reports whether the message requests at least one tool invocation.
func (m Message) HasToolCalls() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}

// IsToolError reports whether the message is a tool result carrying the error marker.
func (m Message) IsToolError() bool {
	return m.Role == RoleTool && m.Content == ToolErrorMarker
}

// WithMeta returns a copy of the message with the given metadata entry set.
func (m Message) WithMeta(key, value string) Message {
	meta := make(map[string]string, len(m.Meta)+1)
	for k, v := range m.Meta {
		meta[k] = v
	}
	meta[key] = value
	m.Meta = meta

	return m
}

// Trace is the chronological, append-only message history of one agent run.
type Trace []Message

// Last returns the newest message of the trace.
func (t Trace) Last() (Message, bool) {
	if len(t) == 0 {
		return Message{}, false
	}

	return t[len(t)-1], true
}

// ToolResults returns all tool result messages in trace order.
func (t Trace) ToolResults() []Message {
	var results []Message
	for _, m := range t {
		if m.Role == RoleTool {
			results = append(results, m)
		}
	}

	return results
}

// Clone returns a copy of the trace sharing message values but not the backing array.
func (t Trace) Clone() Trace {
	c := make(Trace, len(t))
	copy(c, t)

	return c
}

// NewID generates a new unique identifier for runs and stream chunks.
func NewID() string { return uuid.NewString() }
