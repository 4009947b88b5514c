// Package engine drives the bounded reason-then-act loop: model steps wrapped
// by the guardrail pipeline, tool execution, and loop termination. One run
// executes strictly sequentially; concurrency exists only between independent
// runs.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/guard"
	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/model"
	"github.com/hupe1980/agentloop/tool"
)

// Options configure an Engine.
type Options struct {
	// MaxIterations is the hard safety cap on loop iterations per run.
	MaxIterations int
	// Logger receives loop diagnostics. Defaults to no-op.
	Logger logging.Logger
}

// Engine executes runs against one model with one tool set and one guardrail
// pipeline. An Engine is immutable after construction and safe for use by
// concurrent runs.
type Engine struct {
	model    model.Model
	tools    map[string]tool.Tool
	defs     []model.ToolDefinition
	pipeline *guard.Pipeline
	opts     Options
}

// New creates an Engine.
func New(m model.Model, tools []tool.Tool, pipeline *guard.Pipeline, optFns ...func(o *Options)) *Engine {
	opts := Options{
		MaxIterations: 10,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if pipeline == nil {
		pipeline = guard.NewPipeline()
	}

	byName := make(map[string]tool.Tool, len(tools))
	for _, t := range tools {
		byName[t.Name()] = t
	}

	return &Engine{
		model:    m,
		tools:    byName,
		defs:     tool.Definitions(tools),
		pipeline: pipeline,
		opts:     opts,
	}
}

// Step executes one model step: the wrap hooks around a single generation,
// returning the candidate next message. It does not touch the trace.
func (e *Engine) Step(ctx context.Context, rs *core.RunState, instructions string, trace core.Trace) (core.Message, error) {
	call := e.pipeline.WrapModel(rs, e.generate)

	return call(ctx, model.Request{
		Instructions: instructions,
		Trace:        trace,
		Tools:        e.defs,
	})
}

// Execute drives the loop to termination and returns the final trace. Each
// appended message (candidate assistant messages and tool results) is
// reported through onUpdate in order, before the next step runs. Guardrail
// outcomes land in rs; only infrastructure failures return an error.
func (e *Engine) Execute(
	ctx context.Context,
	rs *core.RunState,
	instructions string,
	trace core.Trace,
	onUpdate func(core.Message),
) (core.Trace, error) {
	if onUpdate == nil {
		onUpdate = func(core.Message) {}
	}

	trace = trace.Clone()

	for iteration := 0; iteration < e.opts.MaxIterations; iteration++ {
		// Cancellation is checked at the iteration boundary only; an
		// in-flight tool call is always allowed to finish.
		if err := ctx.Err(); err != nil {
			return trace, err
		}

		decision, err := e.pipeline.RunBefore(ctx, rs, trace)
		if err != nil {
			return trace, err
		}

		if decision == guard.End {
			e.opts.Logger.Debug("engine.loop_end", "run_id", rs.RunID, "iteration", iteration)
			break
		}

		msg, err := e.Step(ctx, rs, instructions, trace)
		if err != nil {
			return trace, err
		}

		trace = append(trace, msg)
		onUpdate(msg)

		if err := e.pipeline.RunAfter(ctx, rs, trace); err != nil {
			return trace, err
		}

		if !msg.HasToolCalls() {
			break
		}

		trace, err = e.executeToolCalls(ctx, rs, trace, msg, onUpdate)
		if err != nil {
			return trace, err
		}
	}

	if err := e.pipeline.RunAfterRun(ctx, rs, trace); err != nil {
		return trace, err
	}

	return trace, nil
}

// executeToolCalls runs the requested calls sequentially. Execution stops at
// the first error result so the error marker stays the newest message for the
// classifier.
func (e *Engine) executeToolCalls(
	ctx context.Context,
	rs *core.RunState,
	trace core.Trace,
	msg core.Message,
	onUpdate func(core.Message),
) (core.Trace, error) {
	for _, tc := range msg.ToolCalls {
		callID := tc.EnsureID()

		t, ok := e.tools[tc.Name]
		if !ok {
			rs.Abort(core.AbortNoToolMatch, fmt.Sprintf("no tool named %q is registered", tc.Name))
			e.opts.Logger.Warn("engine.no_tool_match", "run_id", rs.RunID, "tool", tc.Name)

			errMsg := core.NewToolErrorMessage(tc.Name, callID)
			trace = append(trace, errMsg)
			onUpdate(errMsg)

			return trace, nil
		}

		rs.ToolCalls++

		result, err := t.Call(ctx, tc.Arguments)
		if err != nil {
			var toolErr *tool.ToolError
			if !errors.As(err, &toolErr) {
				// Transport and other infrastructure failures escape the
				// policy layer and fail the run.
				return trace, err
			}

			e.opts.Logger.Warn("engine.tool_error",
				"run_id", rs.RunID, "tool", tc.Name, "code", toolErr.Code, "error", toolErr.Message)

			errMsg := core.NewToolErrorMessage(tc.Name, callID)
			trace = append(trace, errMsg)
			onUpdate(errMsg)

			return trace, nil
		}

		resultMsg := core.NewToolResultMessage(tc.Name, callID, result)
		trace = append(trace, resultMsg)
		onUpdate(resultMsg)
	}

	return trace, nil
}

// generate is the base model call: drains the response stream and returns the
// final (non-partial) message.
func (e *Engine) generate(ctx context.Context, req model.Request) (core.Message, error) {
	respCh, errCh := e.model.Generate(ctx, req)

	var final core.Message
	seen := false

	for resp := range respCh {
		if !resp.Partial {
			final = resp.Message
			seen = true
		}
	}

	if err := <-errCh; err != nil {
		return core.Message{}, err
	}

	if !seen {
		return core.Message{}, errors.New("model produced no final response")
	}

	return final, nil
}
