// Package guard implements the guardrail pipeline: independent, composable
// hooks invoked at fixed points of one loop iteration. Hooks never raise for
// expected conditions (limits reached, tool errors); they encode the outcome
// into the run state and force termination instead.
package guard

import (
	"context"

	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/model"
)

// Decision tells the run engine how to proceed after a before-model hook.
type Decision int

const (
	// Continue lets the iteration proceed to the model call.
	Continue Decision = iota
	// End skips the model call and jumps straight to loop termination.
	End
)

// ModelCall executes one model step and returns the candidate next message.
type ModelCall func(ctx context.Context, req model.Request) (core.Message, error)

// BeforeModel hooks run before each model step and may short-circuit the loop.
type BeforeModel func(ctx context.Context, rs *core.RunState, trace core.Trace) (Decision, error)

// WrapModelCall hooks compose around the model step and may re-invoke it with
// substituted instructions.
type WrapModelCall func(ctx context.Context, rs *core.RunState, req model.Request, next ModelCall) (core.Message, error)

// AfterModel hooks observe the trace after the candidate message was
// appended. They may annotate and report, never veto.
type AfterModel func(ctx context.Context, rs *core.RunState, trace core.Trace) error

// AfterRun hooks run once, after the loop has fully terminated.
type AfterRun func(ctx context.Context, rs *core.RunState, trace core.Trace) error

// Pipeline holds the hooks of one agent configuration. Hooks execute in
// registration order; composition is plain slice iteration.
type Pipeline struct {
	before   []BeforeModel
	wrap     []WrapModelCall
	after    []AfterModel
	afterRun []AfterRun
}

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline { return &Pipeline{} }

// AddBefore registers a before-model hook (chainable).
func (p *Pipeline) AddBefore(hooks ...BeforeModel) *Pipeline {
	p.before = append(p.before, hooks...)
	return p
}

// AddWrap registers a wrap-model-call hook (chainable).
func (p *Pipeline) AddWrap(hooks ...WrapModelCall) *Pipeline {
	p.wrap = append(p.wrap, hooks...)
	return p
}

// AddAfter registers an after-model hook (chainable).
func (p *Pipeline) AddAfter(hooks ...AfterModel) *Pipeline {
	p.after = append(p.after, hooks...)
	return p
}

// AddAfterRun registers an after-run hook (chainable).
func (p *Pipeline) AddAfterRun(hooks ...AfterRun) *Pipeline {
	p.afterRun = append(p.afterRun, hooks...)
	return p
}

// RunBefore executes the before-model hooks in order. The first End decision
// wins and stops further hooks.
func (p *Pipeline) RunBefore(ctx context.Context, rs *core.RunState, trace core.Trace) (Decision, error) {
	for _, hook := range p.before {
		decision, err := hook(ctx, rs, trace)
		if err != nil {
			return End, err
		}

		if decision == End {
			return End, nil
		}
	}

	return Continue, nil
}

// WrapModel composes the wrap hooks around the base model call. The first
// registered hook becomes the outermost layer.
func (p *Pipeline) WrapModel(rs *core.RunState, base ModelCall) ModelCall {
	call := base
	for i := len(p.wrap) - 1; i >= 0; i-- {
		hook := p.wrap[i]
		inner := call
		call = func(ctx context.Context, req model.Request) (core.Message, error) {
			return hook(ctx, rs, req, inner)
		}
	}

	return call
}

// RunAfter executes the after-model hooks in order.
func (p *Pipeline) RunAfter(ctx context.Context, rs *core.RunState, trace core.Trace) error {
	for _, hook := range p.after {
		if err := hook(ctx, rs, trace); err != nil {
			return err
		}
	}

	return nil
}

// RunAfterRun executes the after-run hooks in order.
func (p *Pipeline) RunAfterRun(ctx context.Context, rs *core.RunState, trace core.Trace) error {
	for _, hook := range p.afterRun {
		if err := hook(ctx, rs, trace); err != nil {
			return err
		}
	}

	return nil
}
