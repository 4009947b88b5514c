// Package agent couples one configured instruction set, guardrail pipeline
// and tool set into a runnable unit exposing run and stream entry points.
package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/engine"
	"github.com/hupe1980/agentloop/guard"
	"github.com/hupe1980/agentloop/internal/util"
	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/model"
	"github.com/hupe1980/agentloop/session"
	"github.com/hupe1980/agentloop/tool"
	"github.com/hupe1980/agentloop/validate"
)

// Options configure an Agent.
type Options struct {
	// Instructions is the base system prompt. Supports Go template syntax
	// with {{.name}} and {{.tools}} available.
	Instructions string
	// DirectAnswerInstructions, when set, is substituted for the closing
	// model step of runs ending in a direct answer.
	DirectAnswerInstructions string
	// ToolBasedAnswerInstructions, when set, is substituted for the closing
	// model step of runs ending in a tool-based answer.
	ToolBasedAnswerInstructions string
	// Tools lists the invocable tools, including bridged and sub-agent tools.
	Tools []tool.Tool
	// AllowDirectAnswers permits answers produced without tool grounding.
	AllowDirectAnswers bool
	// Judge gates direct answers. Defaults to the rule-backed judge.
	Judge validate.UsabilityJudge
	// SingleModelCall restricts the run to at most one model step.
	SingleModelCall bool
	// MaxToolCalls is the soft global tool budget per run. 0 means unlimited.
	MaxToolCalls int
	// MaxIterations caps loop iterations per run.
	MaxIterations int
	// Logger receives run diagnostics. Defaults to no-op.
	Logger logging.Logger
}

// RunResult is the structured outcome of one run, always distinguishing
// "aborted with reason" from "succeeded with text".
type RunResult struct {
	Text        string            `json:"text,omitempty"`
	Aborted     bool              `json:"aborted"`
	Reason      core.AbortionCode `json:"reason,omitempty"`
	Description string            `json:"description,omitempty"`
	Status      core.LoopStatus   `json:"status"`
}

// Agent is a runnable unit. Immutable after construction; concurrent runs
// each own their run state and share nothing.
type Agent struct {
	name         string
	instructions string
	engine       *engine.Engine
	logger       logging.Logger
}

// New assembles an agent: rendered instructions, guardrail pipeline, response
// validator and run engine. Schema and template errors surface here, before
// any run starts.
func New(name string, m model.Model, optFns ...func(o *Options)) (*Agent, error) {
	opts := Options{
		MaxIterations: 10,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	toolNames := make([]any, len(opts.Tools))
	for i, t := range opts.Tools {
		toolNames[i] = t.Name()
	}

	templateState := map[string]any{"name": name, "tools": toolNames}

	instructions, err := util.RenderTemplate(opts.Instructions, templateState)
	if err != nil {
		return nil, fmt.Errorf("render instructions: %w", err)
	}

	directAnswer, err := util.RenderTemplate(opts.DirectAnswerInstructions, templateState)
	if err != nil {
		return nil, fmt.Errorf("render direct answer instructions: %w", err)
	}

	toolBasedAnswer, err := util.RenderTemplate(opts.ToolBasedAnswerInstructions, templateState)
	if err != nil {
		return nil, fmt.Errorf("render tool based answer instructions: %w", err)
	}

	validator := validate.New(func(o *validate.Options) {
		o.AllowDirectAnswers = opts.AllowDirectAnswers
		if opts.Judge != nil {
			o.Judge = opts.Judge
		}
		o.Logger = opts.Logger
	})

	pipeline := guard.NewPipeline().
		AddBefore(guard.NewAbortOnToolError()).
		AddAfter(guard.NewCallCounter(), guard.NewFinalInstructionDoc(), guard.NewTraceLog(opts.Logger)).
		AddAfterRun(validator.AfterRun())

	if opts.SingleModelCall {
		pipeline.AddBefore(guard.NewSingleCallLimit())
	}

	if opts.MaxToolCalls > 0 {
		pipeline.AddWrap(guard.NewToolCallLimit(opts.MaxToolCalls))
	}

	if directAnswer != "" || toolBasedAnswer != "" {
		// Once either closing variant is configured the closing step always
		// re-runs; an unset tool-based variant substitutes the base
		// instructions.
		if toolBasedAnswer == "" {
			toolBasedAnswer = instructions
		}

		pipeline.AddWrap(guard.NewFinalInstructionSwitch(directAnswer, toolBasedAnswer))
	}

	eng := engine.New(m, opts.Tools, pipeline, func(o *engine.Options) {
		o.MaxIterations = opts.MaxIterations
		o.Logger = opts.Logger
	})

	return &Agent{
		name:         name,
		instructions: instructions,
		engine:       eng,
		logger:       opts.Logger,
	}, nil
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.name }

// Run drives the loop to completion and returns the validated verdict.
// Policy aborts come back inside RunResult; only infrastructure failures
// return a non-nil error.
func (a *Agent) Run(ctx context.Context, messages ...core.Message) (RunResult, error) {
	rs := core.NewRunState(a.name)

	a.logger.Info("agent.run.start", "run_id", rs.RunID, "agent", a.name)

	if _, err := a.engine.Execute(ctx, rs, a.instructions, core.Trace(messages), nil); err != nil {
		return RunResult{}, err
	}

	result := resultFromState(rs)

	a.logger.Info("agent.run.done",
		"run_id", rs.RunID, "status", string(result.Status), "aborted", result.Aborted)

	return result, nil
}

// RunSession runs the loop on top of a stored conversation: the session's
// prior trace is prepended to the new messages, and the full trace produced
// by the run is written back on success. Failed runs leave the stored trace
// untouched.
func (a *Agent) RunSession(ctx context.Context, store session.Store, sessionID string, messages ...core.Message) (RunResult, error) {
	prior, err := store.Get(sessionID)
	if err != nil {
		return RunResult{}, fmt.Errorf("load session %q: %w", sessionID, err)
	}

	rs := core.NewRunState(a.name)

	a.logger.Info("agent.run.start",
		"run_id", rs.RunID, "agent", a.name, "session_id", sessionID)

	trace, err := a.engine.Execute(ctx, rs, a.instructions, append(prior, messages...), nil)
	if err != nil {
		return RunResult{}, err
	}

	if err := store.Put(sessionID, trace); err != nil {
		return RunResult{}, fmt.Errorf("save session %q: %w", sessionID, err)
	}

	result := resultFromState(rs)

	a.logger.Info("agent.run.done",
		"run_id", rs.RunID, "status", string(result.Status), "aborted", result.Aborted)

	return result, nil
}

func resultFromState(rs *core.RunState) RunResult {
	if rs.Aborted {
		return RunResult{
			Aborted:     true,
			Reason:      rs.AbortionCode,
			Description: rs.AbortDescription,
			Status:      rs.FinalStatus,
		}
	}

	return RunResult{
		Text:   rs.Output,
		Status: rs.FinalStatus,
	}
}
