package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentloop/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Request captures the normalized model input produced by the run engine.
type Request struct {
	Instructions string           `json:"instructions"`
	Trace        core.Trace       `json:"trace"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a streaming model.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Message      core.Message `json:"message"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required to drive one reason step.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples. It
// replays a scripted sequence of assistant turns, one per Generate call.
type MockModel struct {
	mu    sync.Mutex
	info  Info
	turns []core.Message
	next  int

	// Requests records every request seen, for assertions on instructions
	// and tool exposure.
	Requests []Request
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(turns ...core.Message) *MockModel {
	return &MockModel{
		info: Info{
			Name:          "mock",
			Provider:      "mock",
			SupportsTools: true,
		},
		turns: turns,
	}
}

// AddTurn appends a scripted assistant turn.
func (m *MockModel) AddTurn(msg core.Message) { m.turns = append(m.turns, msg) }

// Generate implements Model; emits optional streaming char chunks then the
// next scripted turn as final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.Requests = append(m.Requests, req)

	var turn core.Message

	exhausted := m.next >= len(m.turns)
	if !exhausted {
		turn = m.turns[m.next]
		m.next++
	}
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)

		if exhausted {
			errCh <- fmt.Errorf("mock model: no scripted turn for call %d", m.next+1)
			return
		}

		if req.Stream && turn.Content != "" && !turn.HasToolCalls() {
			for _, r := range turn.Content {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{
					Partial: true,
					Message: core.NewAssistantMessage(string(r)),
				}:
				}
			}
		}

		respCh <- Response{
			Partial:      false,
			Message:      turn,
			FinishReason: finishReason(turn),
		}
	}()

	return respCh, errCh
}

func finishReason(msg core.Message) string {
	if msg.HasToolCalls() {
		return "tool_calls"
	}

	return "stop"
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
