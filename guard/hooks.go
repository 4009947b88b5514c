package guard

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/model"
)

// NewCallCounter returns an after-model hook that increments the model call
// counter. Side effect only, never blocks.
func NewCallCounter() AfterModel {
	return func(_ context.Context, rs *core.RunState, _ core.Trace) error {
		rs.ModelCalls++
		return nil
	}
}

// NewModelCallLimit returns a before-model hook enforcing a maximum number of
// model steps per run. Once the limit is hit, the hook flags the run state
// and forces loop termination instead of raising.
func NewModelCallLimit(max int) BeforeModel {
	return func(_ context.Context, rs *core.RunState, _ core.Trace) (Decision, error) {
		if rs.ModelCalls >= max {
			rs.ModelCallLimitReached = true
			return End, nil
		}

		return Continue, nil
	}
}

// NewSingleCallLimit guarantees at most one model step per run.
func NewSingleCallLimit() BeforeModel {
	return NewModelCallLimit(1)
}

// ToolBudgetNotice is appended to the model context once the tool call budget
// is exhausted, constraining further tool usage in-band.
const ToolBudgetNotice = "The tool call budget for this task is exhausted. " +
	"Do not request any further tool calls; answer using the information gathered so far."

// NewToolCallLimit returns a wrap-model-call hook enforcing a soft global
// maximum of tool invocations across the whole run. Once exceeded, the model
// is still invoked but without tool definitions and with an in-band notice,
// not aborted.
func NewToolCallLimit(max int) WrapModelCall {
	return func(ctx context.Context, rs *core.RunState, req model.Request, next ModelCall) (core.Message, error) {
		if rs.ToolCalls >= max {
			req.Tools = nil
			req.Trace = append(req.Trace.Clone(), core.NewInstructionMessage(ToolBudgetNotice))
		}

		return next(ctx, req)
	}
}

// NewAbortOnToolError returns a before-model hook that inspects the current
// trace; on a detected tool error it records the offending tool and forces
// termination before another model step runs.
func NewAbortOnToolError() BeforeModel {
	return func(_ context.Context, rs *core.RunState, trace core.Trace) (Decision, error) {
		detected := core.Classify(trace)
		if detected.Status != core.StatusAborted || detected.AbortionCode != core.AbortToolError {
			return Continue, nil
		}

		rs.ToolCallError = true
		if last, ok := trace.Last(); ok {
			rs.ErrorToolName = last.ToolName
		}

		rs.Abort(core.AbortToolError, fmt.Sprintf("tool %q reported an error", rs.ErrorToolName))

		return End, nil
	}
}

// NewFinalInstructionSwitch returns a wrap-model-call hook realizing one
// extra inference pass to pick the right closing voice. It runs the wrapped
// model step once, classifies the hypothetical resulting trace, and when the
// candidate closes the loop as a direct or tool-based answer and a matching
// instruction variant is configured, re-runs the step with that variant
// substituted. The returned message is tagged with the variant that produced
// it. Candidates with pending tool calls pass through untouched; the extra
// pass only triggers when the loop is genuinely ending.
func NewFinalInstructionSwitch(directAnswer, toolBasedAnswer string) WrapModelCall {
	return func(ctx context.Context, _ *core.RunState, req model.Request, next ModelCall) (core.Message, error) {
		candidate, err := next(ctx, req)
		if err != nil {
			return core.Message{}, err
		}

		if candidate.HasToolCalls() {
			return candidate, nil
		}

		hypothetical := append(req.Trace.Clone(), candidate)

		var variant string
		var marker core.InstructionMarker

		switch core.Classify(hypothetical).Status {
		case core.StatusDirectAnswer:
			variant, marker = directAnswer, core.InstructionDirectAnswer
		case core.StatusToolBasedAnswer:
			variant, marker = toolBasedAnswer, core.InstructionToolBasedAnswer
		default:
			return candidate, nil
		}

		if variant == "" {
			return candidate, nil
		}

		req.Instructions = variant

		final, err := next(ctx, req)
		if err != nil {
			return core.Message{}, err
		}

		return final.WithMeta(core.MetaUsedInstructions, string(marker)), nil
	}
}

// NewFinalInstructionDoc returns an after-model hook that records which
// instruction variant produced the closing message, for observability.
func NewFinalInstructionDoc() AfterModel {
	return func(_ context.Context, rs *core.RunState, trace core.Trace) error {
		detected := core.Classify(trace)
		if detected.Status != core.StatusDirectAnswer && detected.Status != core.StatusToolBasedAnswer {
			return nil
		}

		last, ok := trace.Last()
		if !ok {
			return nil
		}

		if used, ok := last.Meta[core.MetaUsedInstructions]; ok {
			rs.FinalInstructionSwitched = true
			rs.FinalInstructionUsed = core.InstructionMarker(used)
		}

		return nil
	}
}

// NewTraceLog returns an after-model hook that logs the loop status after
// each iteration.
func NewTraceLog(logger logging.Logger) AfterModel {
	return func(_ context.Context, rs *core.RunState, trace core.Trace) error {
		detected := core.Classify(trace)
		logger.Debug("loop.iteration",
			"run_id", rs.RunID,
			"status", string(detected.Status),
			"model_calls", rs.ModelCalls,
			"tool_calls", rs.ToolCalls,
		)

		if detected.AbortionCode == core.AbortUnknown {
			// Indicates a gap in classifier case coverage.
			logger.Error("loop.unknown_trace_shape", "run_id", rs.RunID, "trace_len", len(trace))
		}

		return nil
	}
}
