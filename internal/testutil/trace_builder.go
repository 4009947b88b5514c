package testutil

import (
	"github.com/hupe1980/agentloop/core"
)

// TraceBuilder provides a fluent helper for constructing traces in tests.
// Example:
//
//	trace := NewTraceBuilder().
//		User("add 2 and 3").
//		ToolCall("1", "calculate_sum", `{"a":"2","b":"3"}`).
//		ToolResult("calculate_sum", "1", "5").
//		Assistant("The sum is 5").
//		Build()
//
// Chain only the parts you need.
type TraceBuilder struct {
	trace core.Trace
}

// NewTraceBuilder creates an empty builder.
func NewTraceBuilder() *TraceBuilder { return &TraceBuilder{} }

// Instruction appends a system instruction message (chainable).
func (b *TraceBuilder) Instruction(content string) *TraceBuilder {
	b.trace = append(b.trace, core.NewInstructionMessage(content))
	return b
}

// User appends a user message (chainable).
func (b *TraceBuilder) User(content string) *TraceBuilder {
	b.trace = append(b.trace, core.NewUserMessage(content))
	return b
}

// Assistant appends a plain assistant message (chainable).
func (b *TraceBuilder) Assistant(content string) *TraceBuilder {
	b.trace = append(b.trace, core.NewAssistantMessage(content))
	return b
}

// ToolCall appends an assistant message requesting a single tool call (chainable).
func (b *TraceBuilder) ToolCall(id, name, args string) *TraceBuilder {
	b.trace = append(b.trace, core.NewToolCallMessage("", core.ToolCall{ID: id, Name: name, Arguments: args}))
	return b
}

// ToolResult appends a successful tool result message (chainable).
func (b *TraceBuilder) ToolResult(toolName, callID, content string) *TraceBuilder {
	b.trace = append(b.trace, core.NewToolResultMessage(toolName, callID, content))
	return b
}

// ToolError appends a tool result carrying the error marker (chainable).
func (b *TraceBuilder) ToolError(toolName, callID string) *TraceBuilder {
	b.trace = append(b.trace, core.NewToolErrorMessage(toolName, callID))
	return b
}

// Build returns the accumulated trace.
func (b *TraceBuilder) Build() core.Trace { return b.trace.Clone() }
