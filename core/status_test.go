package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		trace      Trace
		wantStatus LoopStatus
		wantCode   AbortionCode
	}{
		{
			name:       "user message pending",
			trace:      Trace{NewUserMessage("add 2 and 3")},
			wantStatus: StatusPending,
		},
		{
			name: "trailing user message stays pending",
			trace: Trace{
				NewAssistantMessage("hello"),
				NewUserMessage("and now?"),
			},
			wantStatus: StatusPending,
		},
		{
			name: "tool error aborts",
			trace: Trace{
				NewUserMessage("q"),
				NewToolCallMessage("", ToolCall{ID: "1", Name: "add"}),
				NewToolErrorMessage("add", "1"),
			},
			wantStatus: StatusAborted,
			wantCode:   AbortToolError,
		},
		{
			name: "pending tool calls",
			trace: Trace{
				NewUserMessage("q"),
				NewToolCallMessage("", ToolCall{ID: "1", Name: "add", Arguments: `{"a":"2"}`}),
			},
			wantStatus: StatusToolCallRequested,
		},
		{
			name: "tool result without summary",
			trace: Trace{
				NewUserMessage("q"),
				NewToolCallMessage("", ToolCall{ID: "1", Name: "add"}),
				NewToolResultMessage("add", "1", "5"),
			},
			wantStatus: StatusToolResultOnly,
		},
		{
			name: "direct answer without tool usage",
			trace: Trace{
				NewUserMessage("q"),
				NewAssistantMessage("42"),
			},
			wantStatus: StatusDirectAnswer,
		},
		{
			name: "tool based answer",
			trace: Trace{
				NewUserMessage("q"),
				NewToolCallMessage("", ToolCall{ID: "1", Name: "add"}),
				NewToolResultMessage("add", "1", "5"),
				NewAssistantMessage("The sum is 5"),
			},
			wantStatus: StatusToolBasedAnswer,
		},
		{
			name:       "empty trace falls back to unknown abort",
			trace:      Trace{},
			wantStatus: StatusAborted,
			wantCode:   AbortUnknown,
		},
		{
			name:       "instruction-only trace falls back to unknown abort",
			trace:      Trace{NewInstructionMessage("be helpful")},
			wantStatus: StatusAborted,
			wantCode:   AbortUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detected := Classify(tt.trace)
			assert.Equal(t, tt.wantStatus, detected.Status)
			assert.Equal(t, tt.wantCode, detected.AbortionCode)
		})
	}
}

func TestClassifyToolCallRequestedWinsOverHistory(t *testing.T) {
	// Regardless of earlier tool results, pending tool calls dominate.
	trace := Trace{
		NewUserMessage("q"),
		NewToolCallMessage("", ToolCall{ID: "1", Name: "add"}),
		NewToolResultMessage("add", "1", "5"),
		NewToolCallMessage("", ToolCall{ID: "2", Name: "add"}),
	}

	detected := Classify(trace)
	assert.Equal(t, StatusToolCallRequested, detected.Status)
}

func TestClassifyIsIdempotent(t *testing.T) {
	trace := Trace{
		NewUserMessage("q"),
		NewToolCallMessage("", ToolCall{ID: "1", Name: "add"}),
		NewToolResultMessage("add", "1", "5"),
		NewAssistantMessage("done"),
	}

	first := Classify(trace)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Classify(trace))
	}
}
