package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/tool"
	"github.com/tidwall/gjson"
)

// SubAgentOptions configure the agent-as-tool adapter.
type SubAgentOptions struct {
	// Name overrides the tool name. Defaults to the sub-agent's name.
	Name string
	// Description overrides the tool description shown to the parent's model.
	Description string
}

// AsTool wraps a fully configured agent as a single-argument (free-text
// query) invocable tool, so it can be listed among an outer agent's tools.
//
// While the sub-agent runs, every one of its chunks is forwarded through the
// parent's chunk writer (when streaming), re-tagged Inner and carrying the
// sub-agent's name. The tool's ordinary return value is the sub-agent's final
// validated text; a sub-agent abort returns a textual "[ABORTED: <reason>]"
// marker instead of an error, so guardrail-detectable failures never escape
// as exceptions to the parent loop.
func AsTool(sub *Agent, optFns ...func(o *SubAgentOptions)) tool.Tool {
	opts := SubAgentOptions{
		Name:        sub.Name(),
		Description: fmt.Sprintf("Delegate a task to the %s agent. Pass the full task as a free-text query.", sub.Name()),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &subAgentTool{sub: sub, opts: opts}
}

type subAgentTool struct {
	sub  *Agent
	opts SubAgentOptions
}

func (t *subAgentTool) Name() string { return t.opts.Name }

func (t *subAgentTool) Description() string { return t.opts.Description }

func (t *subAgentTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The task or question for the sub-agent.",
			},
		},
		"required": []string{"query"},
	}
}

// Call runs the sub-agent to completion on the query, forwarding its stream
// through the parent's writer, and returns the final text as a normal tool
// result.
func (t *subAgentTool) Call(ctx context.Context, args string) (string, error) {
	query := gjson.Get(args, "query")
	if !query.Exists() || query.String() == "" {
		return "", &tool.ToolError{
			Tool:    t.opts.Name,
			Message: `required argument "query" missing`,
			Code:    "MISSING_REQUIRED_ARGUMENT",
		}
	}

	writer, hasWriter := ChunkWriterFrom(ctx)

	chunks, errCh := t.sub.Stream(ctx, core.NewUserMessage(query.String()))

	var finalText string
	var aborted bool
	var abortReason string

	for chunk := range chunks {
		if hasWriter {
			writer(chunk.AsInner())
		}

		// Terminal chunks of the sub-agent's own run decide the tool result;
		// deeper nested terminals pass through untouched.
		if chunk.Level != core.LevelOuter {
			continue
		}

		switch chunk.Event {
		case core.EventFinal:
			finalText = chunk.Payload
		case core.EventAborted:
			aborted = true
			abortReason = chunk.AbortionReason
			if chunk.Payload != "" {
				abortReason += ": " + chunk.Payload
			}
		}
	}

	if err := <-errCh; err != nil {
		return "", fmt.Errorf("sub-agent %s: %w", t.sub.Name(), err)
	}

	if aborted {
		return fmt.Sprintf("[ABORTED: %s]", abortReason), nil
	}

	return finalText, nil
}
