package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/model"
	"github.com/tidwall/gjson"
)

// UsabilityJudge decides whether a direct answer (produced without any tool
// grounding) is usable as the final response to the user's query.
type UsabilityJudge interface {
	Usable(ctx context.Context, query, answer string) (bool, string, error)
}

// JudgeFunc adapts a plain function to the UsabilityJudge interface.
type JudgeFunc func(ctx context.Context, query, answer string) (bool, string, error)

// Usable implements UsabilityJudge.
func (f JudgeFunc) Usable(ctx context.Context, query, answer string) (bool, string, error) {
	return f(ctx, query, answer)
}

// NewRuleJudge returns a rule-backed judge that accepts any non-empty,
// non-whitespace answer. Default when no LLM-backed judge is configured.
func NewRuleJudge() UsabilityJudge {
	return JudgeFunc(func(_ context.Context, _, answer string) (bool, string, error) {
		if strings.TrimSpace(answer) == "" {
			return false, "answer is empty", nil
		}

		return true, "answer is non-empty", nil
	})
}

const judgeInstructions = `You judge whether an assistant answer is a usable response to a user query.
A usable answer addresses the query substantively. Refusals, requests for clarification,
placeholders and statements of inability are not usable.
Respond with a single JSON object: {"usable": true|false, "reasoning": "<one sentence>"}.`

// ModelJudge is an LLM-backed binary classifier over the answer text.
type ModelJudge struct {
	model model.Model
}

// NewModelJudge creates a judge backed by the given model.
func NewModelJudge(m model.Model) *ModelJudge {
	return &ModelJudge{model: m}
}

// Usable implements UsabilityJudge. The verdict is extracted from the model's
// JSON output, tolerating surrounding prose or code fences.
func (j *ModelJudge) Usable(ctx context.Context, query, answer string) (bool, string, error) {
	prompt := fmt.Sprintf("User query:\n%s\n\nAssistant answer:\n%s", query, answer)

	respCh, errCh := j.model.Generate(ctx, model.Request{
		Instructions: judgeInstructions,
		Trace:        core.Trace{core.NewUserMessage(prompt)},
	})

	var text string
	for resp := range respCh {
		if !resp.Partial {
			text = resp.Message.Content
		}
	}

	if err := <-errCh; err != nil {
		return false, "", fmt.Errorf("usability judge: %w", err)
	}

	verdict := gjson.Get(extractJSON(text), "usable")
	if !verdict.Exists() {
		return false, "", fmt.Errorf("usability judge: no verdict in response %q", text)
	}

	return verdict.Bool(), gjson.Get(extractJSON(text), "reasoning").String(), nil
}

// extractJSON strips code fences and surrounding prose down to the first
// top-level JSON object.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return text
	}

	return text[start : end+1]
}
