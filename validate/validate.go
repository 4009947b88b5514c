// Package validate turns the final trace of a terminated loop into a single
// validated answer or a structured abort. It trusts tool-grounded answers by
// construction and gates ungrounded direct answers behind a usability judge.
package validate

import (
	"context"
	"strings"

	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/guard"
	"github.com/hupe1980/agentloop/logging"
)

// Result is the validator's verdict over a terminated run.
type Result struct {
	Text         string            `json:"text,omitempty"`
	Valid        bool              `json:"valid"`
	AbortionCode core.AbortionCode `json:"abortion_code,omitempty"`
	Status       core.LoopStatus   `json:"status"`
}

// Options configure a Validator.
type Options struct {
	// AllowDirectAnswers permits answers produced without any tool grounding.
	// When false, a direct answer is an abort condition.
	AllowDirectAnswers bool
	// Judge gates direct answers. Defaults to the rule-backed judge.
	Judge UsabilityJudge
	// Logger receives validation diagnostics. Defaults to no-op.
	Logger logging.Logger
}

// Validator implements the post-loop response validation.
type Validator struct {
	opts Options
}

// New creates a Validator.
func New(optFns ...func(o *Options)) *Validator {
	opts := Options{
		Judge:  NewRuleJudge(),
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Validator{opts: opts}
}

// Validate classifies the terminated trace and produces the final verdict:
//
//   - Aborted propagates its code.
//   - ToolResultOnly is valid; the text is the concatenation of all tool
//     result contents (fallback when no summarizing call happened).
//   - DirectAnswer requires AllowDirectAnswers plus a usable verdict from
//     the judge.
//   - ToolBasedAnswer is valid as-is.
//   - Everything else maps to the defensive Unknown abort.
//
// Only judge infrastructure failures return a non-nil error.
func (v *Validator) Validate(ctx context.Context, trace core.Trace) (Result, error) {
	detected := core.Classify(trace)
	result := Result{Status: detected.Status}

	switch detected.Status {
	case core.StatusAborted:
		result.AbortionCode = detected.AbortionCode

	case core.StatusToolResultOnly:
		result.Valid = true
		result.Text = joinToolResults(trace)

	case core.StatusDirectAnswer:
		last, _ := trace.Last()

		if !v.opts.AllowDirectAnswers {
			result.AbortionCode = core.AbortDirectAnswersForbidden
			break
		}

		usable, reasoning, err := v.opts.Judge.Usable(ctx, firstUserQuery(trace), last.Content)
		if err != nil {
			return Result{}, err
		}

		v.opts.Logger.Debug("validate.judge", "usable", usable, "reasoning", reasoning)

		if !usable {
			result.AbortionCode = core.AbortDirectAnswerUnusable
			break
		}

		result.Valid = true
		result.Text = last.Content

	case core.StatusToolBasedAnswer:
		last, _ := trace.Last()
		result.Valid = true
		result.Text = last.Content

	default:
		// Pending or ToolCallRequested should never survive loop termination.
		v.opts.Logger.Error("validate.unexpected_status", "status", string(detected.Status))
		result.Status = core.StatusAborted
		result.AbortionCode = core.AbortUnknown
	}

	return result, nil
}

// AfterRun adapts the validator into an after-run guardrail hook, writing the
// verdict into the run state.
func (v *Validator) AfterRun() guard.AfterRun {
	return func(ctx context.Context, rs *core.RunState, trace core.Trace) error {
		result, err := v.Validate(ctx, trace)
		if err != nil {
			return err
		}

		rs.FinalStatus = result.Status
		rs.Output = result.Text
		rs.OutputValid = result.Valid

		if !result.Valid {
			rs.Abort(result.AbortionCode, abortDescription(result.AbortionCode, rs))
		}

		return nil
	}
}

func joinToolResults(trace core.Trace) string {
	var contents []string
	for _, msg := range trace.ToolResults() {
		if msg.Content != "" {
			contents = append(contents, msg.Content)
		}
	}

	return strings.Join(contents, "\n")
}

func firstUserQuery(trace core.Trace) string {
	for _, msg := range trace {
		if msg.Role == core.RoleUser {
			return msg.Content
		}
	}

	return ""
}

func abortDescription(code core.AbortionCode, rs *core.RunState) string {
	switch code {
	case core.AbortToolError:
		return "tool " + rs.ErrorToolName + " reported an error"
	case core.AbortDirectAnswersForbidden:
		return "the agent answered directly but direct answers are forbidden"
	case core.AbortDirectAnswerUnusable:
		return "the usability judge rejected the direct answer"
	case core.AbortNoToolMatch:
		return "the model requested a tool that is not registered"
	case core.AbortHallucination:
		return "the answer failed grounding validation"
	default:
		return "the run terminated in an unrecognized state"
	}
}
