package agent

import (
	"context"
	"testing"

	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/model"
	"github.com/hupe1980/agentloop/session"
	"github.com/hupe1980/agentloop/tool"
	"github.com/hupe1980/agentloop/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addTool() tool.Tool {
	return tool.NewFunctionTool("add", "Add two numbers",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"a": map[string]any{"type": "number"},
				"b": map[string]any{"type": "number"},
			},
			"required": []any{"a", "b"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			return args["a"].(float64) + args["b"].(float64), nil
		},
	)
}

func errorTool() tool.Tool {
	return tool.NewFunctionTool("lookup", "Always fails", map[string]any{"type": "object"},
		func(ctx context.Context, args map[string]any) (any, error) {
			return nil, tool.NewToolError("lookup", "backend unavailable", "MCP_TOOL_ERROR")
		},
	)
}

func TestRunToolBasedAnswer(t *testing.T) {
	m := model.NewMockModel(
		core.NewToolCallMessage("", core.ToolCall{ID: "1", Name: "add", Arguments: `{"a": 2, "b": 3}`}),
		core.NewAssistantMessage("The sum is 5"),
	)

	a, err := New("Calculator", m, func(o *Options) {
		o.Tools = []tool.Tool{addTool()}
	})
	require.NoError(t, err)

	result, err := a.Run(context.Background(), core.NewUserMessage("add 2 and 3"))
	require.NoError(t, err)

	assert.False(t, result.Aborted)
	assert.Equal(t, "The sum is 5", result.Text)
	assert.Equal(t, core.StatusToolBasedAnswer, result.Status)
}

func TestRunToolErrorAborts(t *testing.T) {
	m := model.NewMockModel(
		core.NewToolCallMessage("", core.ToolCall{ID: "1", Name: "lookup", Arguments: `{}`}),
		core.NewAssistantMessage("never reached"),
	)

	a, err := New("Researcher", m, func(o *Options) {
		o.Tools = []tool.Tool{errorTool()}
	})
	require.NoError(t, err)

	result, err := a.Run(context.Background(), core.NewUserMessage("look something up"))
	require.NoError(t, err)

	assert.True(t, result.Aborted)
	assert.Equal(t, core.AbortToolError, result.Reason)
	assert.Equal(t, core.StatusAborted, result.Status)
}

func TestRunDirectAnswerAllowed(t *testing.T) {
	m := model.NewMockModel(core.NewAssistantMessage("42"))

	a, err := New("Oracle", m, func(o *Options) {
		o.SingleModelCall = true
		o.AllowDirectAnswers = true
		o.Judge = validate.JudgeFunc(func(context.Context, string, string) (bool, string, error) {
			return true, "fine", nil
		})
	})
	require.NoError(t, err)

	result, err := a.Run(context.Background(), core.NewUserMessage("the answer?"))
	require.NoError(t, err)

	assert.False(t, result.Aborted)
	assert.Equal(t, "42", result.Text)
	assert.Equal(t, core.StatusDirectAnswer, result.Status)
}

func TestRunDirectAnswerForbidden(t *testing.T) {
	m := model.NewMockModel(core.NewAssistantMessage("42"))

	a, err := New("Strict", m)
	require.NoError(t, err)

	result, err := a.Run(context.Background(), core.NewUserMessage("the answer?"))
	require.NoError(t, err)

	assert.True(t, result.Aborted)
	assert.Equal(t, core.AbortDirectAnswersForbidden, result.Reason)
}

func TestRunDirectAnswerUnusable(t *testing.T) {
	m := model.NewMockModel(core.NewAssistantMessage("I cannot help with that."))

	a, err := New("Oracle", m, func(o *Options) {
		o.AllowDirectAnswers = true
		o.Judge = validate.JudgeFunc(func(context.Context, string, string) (bool, string, error) {
			return false, "refusal", nil
		})
	})
	require.NoError(t, err)

	result, err := a.Run(context.Background(), core.NewUserMessage("help"))
	require.NoError(t, err)

	assert.True(t, result.Aborted)
	assert.Equal(t, core.AbortDirectAnswerUnusable, result.Reason)
}

func TestRunFinalInstructionSwitch(t *testing.T) {
	m := model.NewMockModel(
		core.NewToolCallMessage("", core.ToolCall{ID: "1", Name: "add", Arguments: `{"a": 2, "b": 3}`}),
		core.NewAssistantMessage("raw candidate"),
		core.NewAssistantMessage("The sum of your numbers is 5."),
	)

	a, err := New("Calculator", m, func(o *Options) {
		o.Tools = []tool.Tool{addTool()}
		o.ToolBasedAnswerInstructions = "Summarize the tool results in one friendly sentence."
	})
	require.NoError(t, err)

	result, err := a.Run(context.Background(), core.NewUserMessage("add 2 and 3"))
	require.NoError(t, err)

	assert.Equal(t, "The sum of your numbers is 5.", result.Text)

	// The closing step ran twice: candidate plus the substituted re-run.
	require.Len(t, m.Requests, 3)
	assert.Equal(t, "Summarize the tool results in one friendly sentence.", m.Requests[2].Instructions)
}

func TestRunFinalInstructionSwitchToolBasedFallback(t *testing.T) {
	m := model.NewMockModel(
		core.NewToolCallMessage("", core.ToolCall{ID: "1", Name: "add", Arguments: `{"a": 2, "b": 3}`}),
		core.NewAssistantMessage("raw candidate"),
		core.NewAssistantMessage("The sum is 5."),
	)

	a, err := New("Calculator", m, func(o *Options) {
		o.Tools = []tool.Tool{addTool()}
		o.Instructions = "Base voice."
		o.DirectAnswerInstructions = "Answer plainly."
	})
	require.NoError(t, err)

	result, err := a.Run(context.Background(), core.NewUserMessage("add 2 and 3"))
	require.NoError(t, err)
	assert.Equal(t, "The sum is 5.", result.Text)

	// With only the direct-answer variant configured, a tool-based close
	// still re-runs, under the base instructions.
	require.Len(t, m.Requests, 3)
	assert.Equal(t, "Base voice.", m.Requests[2].Instructions)
}

func TestNewRendersInstructionTemplates(t *testing.T) {
	m := model.NewMockModel(core.NewAssistantMessage("ok"))

	a, err := New("Calculator", m, func(o *Options) {
		o.Tools = []tool.Tool{addTool()}
		o.Instructions = "You are {{.name}}. Tools: {{join \", \" .tools}}."
	})
	require.NoError(t, err)
	assert.Equal(t, "You are Calculator. Tools: add.", a.instructions)

	_, err = New("Broken", m, func(o *Options) {
		o.Instructions = "{{.name"
	})
	assert.Error(t, err)
}

func TestRunSessionKeepsTraceAcrossRuns(t *testing.T) {
	m := model.NewMockModel(
		core.NewAssistantMessage("Nice to meet you, Alice."),
		core.NewAssistantMessage("Your name is Alice."),
	)

	a, err := New("Concierge", m, func(o *Options) {
		o.AllowDirectAnswers = true
		o.Judge = validate.JudgeFunc(func(context.Context, string, string) (bool, string, error) {
			return true, "fine", nil
		})
	})
	require.NoError(t, err)

	store := session.NewInMemoryStore()

	first, err := a.RunSession(context.Background(), store, "s1",
		core.NewUserMessage("My name is Alice."))
	require.NoError(t, err)
	assert.Equal(t, "Nice to meet you, Alice.", first.Text)

	second, err := a.RunSession(context.Background(), store, "s1",
		core.NewUserMessage("What is my name?"))
	require.NoError(t, err)
	assert.Equal(t, "Your name is Alice.", second.Text)

	// The second model call saw the whole stored conversation.
	require.Len(t, m.Requests, 2)
	require.Len(t, m.Requests[1].Trace, 3)
	assert.Equal(t, "My name is Alice.", m.Requests[1].Trace[0].Content)

	trace, err := store.Get("s1")
	require.NoError(t, err)
	assert.Len(t, trace, 4)
}

func TestRunSoftToolCallLimit(t *testing.T) {
	m := model.NewMockModel(
		core.NewToolCallMessage("", core.ToolCall{ID: "1", Name: "add", Arguments: `{"a": 1, "b": 1}`}),
		core.NewAssistantMessage("Enough adding."),
	)

	a, err := New("Calculator", m, func(o *Options) {
		o.Tools = []tool.Tool{addTool()}
		o.MaxToolCalls = 1
	})
	require.NoError(t, err)

	result, err := a.Run(context.Background(), core.NewUserMessage("keep adding"))
	require.NoError(t, err)
	assert.False(t, result.Aborted)
	assert.Equal(t, "Enough adding.", result.Text)

	// The second model call ran without tool definitions and with the
	// in-band notice; the model was still invoked, not aborted.
	require.Len(t, m.Requests, 2)
	assert.NotEmpty(t, m.Requests[0].Tools)
	assert.Empty(t, m.Requests[1].Tools)

	last, _ := m.Requests[1].Trace.Last()
	assert.Equal(t, core.RoleInstruction, last.Role)
}
