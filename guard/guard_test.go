package guard

import (
	"context"
	"testing"

	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/internal/testutil"
	"github.com/hupe1980/agentloop/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineRunBeforeFirstEndWins(t *testing.T) {
	var calls []string

	p := NewPipeline().
		AddBefore(func(context.Context, *core.RunState, core.Trace) (Decision, error) {
			calls = append(calls, "first")
			return Continue, nil
		}).
		AddBefore(func(context.Context, *core.RunState, core.Trace) (Decision, error) {
			calls = append(calls, "second")
			return End, nil
		}).
		AddBefore(func(context.Context, *core.RunState, core.Trace) (Decision, error) {
			calls = append(calls, "third")
			return Continue, nil
		})

	decision, err := p.RunBefore(context.Background(), core.NewRunState("A"), nil)
	require.NoError(t, err)
	assert.Equal(t, End, decision)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestPipelineWrapModelComposesInRegistrationOrder(t *testing.T) {
	var order []string

	tag := func(name string) WrapModelCall {
		return func(ctx context.Context, _ *core.RunState, req model.Request, next ModelCall) (core.Message, error) {
			order = append(order, name+".in")
			msg, err := next(ctx, req)
			order = append(order, name+".out")
			return msg, err
		}
	}

	p := NewPipeline().AddWrap(tag("outer"), tag("inner"))

	call := p.WrapModel(core.NewRunState("A"), func(context.Context, model.Request) (core.Message, error) {
		order = append(order, "base")
		return core.NewAssistantMessage("ok"), nil
	})

	msg, err := call(context.Background(), model.Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", msg.Content)
	assert.Equal(t, []string{"outer.in", "inner.in", "base", "inner.out", "outer.out"}, order)
}

func TestCallCounter(t *testing.T) {
	rs := core.NewRunState("A")
	counter := NewCallCounter()

	for i := 0; i < 3; i++ {
		require.NoError(t, counter(context.Background(), rs, nil))
	}

	assert.Equal(t, 3, rs.ModelCalls)
}

func TestSingleCallLimit(t *testing.T) {
	rs := core.NewRunState("A")
	limit := NewSingleCallLimit()

	decision, err := limit(context.Background(), rs, nil)
	require.NoError(t, err)
	assert.Equal(t, Continue, decision)
	assert.False(t, rs.ModelCallLimitReached)

	rs.ModelCalls = 1

	decision, err = limit(context.Background(), rs, nil)
	require.NoError(t, err)
	assert.Equal(t, End, decision)
	assert.True(t, rs.ModelCallLimitReached)
}

func TestToolCallLimitConstrainsRequestInBand(t *testing.T) {
	limit := NewToolCallLimit(2)

	var seen model.Request
	next := func(_ context.Context, req model.Request) (core.Message, error) {
		seen = req
		return core.NewAssistantMessage("ok"), nil
	}

	rs := core.NewRunState("A")
	req := model.Request{
		Trace: testutil.NewTraceBuilder().User("q").Build(),
		Tools: []model.ToolDefinition{{Type: "function"}},
	}

	// Under budget: request passes through untouched.
	_, err := limit(context.Background(), rs, req, next)
	require.NoError(t, err)
	assert.Len(t, seen.Tools, 1)
	assert.Len(t, seen.Trace, 1)

	// Budget exhausted: tools stripped, notice appended, model still invoked.
	rs.ToolCalls = 2

	_, err = limit(context.Background(), rs, req, next)
	require.NoError(t, err)
	assert.Empty(t, seen.Tools)
	require.Len(t, seen.Trace, 2)

	last, _ := seen.Trace.Last()
	assert.Equal(t, core.RoleInstruction, last.Role)
	assert.Equal(t, ToolBudgetNotice, last.Content)

	// Original request trace is not mutated.
	assert.Len(t, req.Trace, 1)
}

func TestAbortOnToolError(t *testing.T) {
	hook := NewAbortOnToolError()

	rs := core.NewRunState("A")
	clean := testutil.NewTraceBuilder().User("q").Build()

	decision, err := hook(context.Background(), rs, clean)
	require.NoError(t, err)
	assert.Equal(t, Continue, decision)
	assert.False(t, rs.Aborted)

	errored := testutil.NewTraceBuilder().
		User("q").
		ToolCall("1", "add", `{}`).
		ToolError("add", "1").
		Build()

	decision, err = hook(context.Background(), rs, errored)
	require.NoError(t, err)
	assert.Equal(t, End, decision)
	assert.True(t, rs.Aborted)
	assert.Equal(t, core.AbortToolError, rs.AbortionCode)
	assert.Equal(t, "add", rs.ErrorToolName)
	assert.True(t, rs.ToolCallError)
}

func TestFinalInstructionSwitchRerunsForDirectAnswer(t *testing.T) {
	hook := NewFinalInstructionSwitch("answer directly", "summarize tool results")

	var instructions []string
	next := func(_ context.Context, req model.Request) (core.Message, error) {
		instructions = append(instructions, req.Instructions)
		return core.NewAssistantMessage("42"), nil
	}

	req := model.Request{
		Instructions: "base",
		Trace:        testutil.NewTraceBuilder().User("q").Build(),
	}

	msg, err := hook(context.Background(), core.NewRunState("A"), req, next)
	require.NoError(t, err)

	assert.Equal(t, []string{"base", "answer directly"}, instructions)
	assert.Equal(t, string(core.InstructionDirectAnswer), msg.Meta[core.MetaUsedInstructions])
}

func TestFinalInstructionSwitchRerunsForToolBasedAnswer(t *testing.T) {
	hook := NewFinalInstructionSwitch("direct", "toolbased")

	var instructions []string
	next := func(_ context.Context, req model.Request) (core.Message, error) {
		instructions = append(instructions, req.Instructions)
		return core.NewAssistantMessage("The sum is 5"), nil
	}

	req := model.Request{
		Instructions: "base",
		Trace: testutil.NewTraceBuilder().
			User("q").
			ToolCall("1", "add", `{}`).
			ToolResult("add", "1", "5").
			Build(),
	}

	msg, err := hook(context.Background(), core.NewRunState("A"), req, next)
	require.NoError(t, err)

	assert.Equal(t, []string{"base", "toolbased"}, instructions)
	assert.Equal(t, string(core.InstructionToolBasedAnswer), msg.Meta[core.MetaUsedInstructions])
}

func TestFinalInstructionSwitchSkipsPendingToolCalls(t *testing.T) {
	hook := NewFinalInstructionSwitch("direct", "toolbased")

	calls := 0
	next := func(context.Context, model.Request) (core.Message, error) {
		calls++
		return core.NewToolCallMessage("", core.ToolCall{ID: "1", Name: "add"}), nil
	}

	req := model.Request{Trace: testutil.NewTraceBuilder().User("q").Build()}

	msg, err := hook(context.Background(), core.NewRunState("A"), req, next)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, msg.HasToolCalls())
	assert.Empty(t, msg.Meta)
}

func TestFinalInstructionSwitchWithoutConfiguredVariant(t *testing.T) {
	hook := NewFinalInstructionSwitch("", "")

	calls := 0
	next := func(context.Context, model.Request) (core.Message, error) {
		calls++
		return core.NewAssistantMessage("42"), nil
	}

	req := model.Request{Trace: testutil.NewTraceBuilder().User("q").Build()}

	msg, err := hook(context.Background(), core.NewRunState("A"), req, next)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "42", msg.Content)
}

func TestFinalInstructionDoc(t *testing.T) {
	hook := NewFinalInstructionDoc()
	rs := core.NewRunState("A")

	answer := core.NewAssistantMessage("42").
		WithMeta(core.MetaUsedInstructions, string(core.InstructionDirectAnswer))
	trace := append(testutil.NewTraceBuilder().User("q").Build(), answer)

	require.NoError(t, hook(context.Background(), rs, trace))
	assert.True(t, rs.FinalInstructionSwitched)
	assert.Equal(t, core.InstructionDirectAnswer, rs.FinalInstructionUsed)

	// Untagged answers leave the defaults in place.
	rs = core.NewRunState("A")
	trace = testutil.NewTraceBuilder().User("q").Assistant("42").Build()

	require.NoError(t, hook(context.Background(), rs, trace))
	assert.False(t, rs.FinalInstructionSwitched)
	assert.Equal(t, core.InstructionInitial, rs.FinalInstructionUsed)
}
