package memory

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentloop/tool"
)

// defaultRecallLimit bounds recall results when the model omits a limit.
const defaultRecallLimit = 5

// NewRememberTool returns a tool that writes a note into the store and
// reports the assigned id.
func NewRememberTool(store Store) tool.Tool {
	return tool.NewFunctionTool(
		"remember",
		"Store a note for later recall",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"content": map[string]any{
					"type":        "string",
					"description": "The note to remember",
				},
			},
			"required": []string{"content"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			content, _ := args["content"].(string)

			id, err := store.Save(content)
			if err != nil {
				return nil, fmt.Errorf("save memory: %w", err)
			}

			return fmt.Sprintf("remembered as %s", id), nil
		},
	)
}

// NewRecallTool returns a tool that searches stored notes by substring.
func NewRecallTool(store Store) tool.Tool {
	return tool.NewFunctionTool(
		"recall",
		"Search previously stored notes",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Text to search for",
				},
				"limit": map[string]any{
					"type":        "number",
					"description": "Maximum number of notes to return",
				},
			},
			"required": []string{"query"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			query, _ := args["query"].(string)

			limit := defaultRecallLimit
			if v, ok := args["limit"].(float64); ok && v > 0 {
				limit = int(v)
			}

			entries, err := store.Search(query, limit)
			if err != nil {
				return nil, fmt.Errorf("search memory: %w", err)
			}

			if len(entries) == 0 {
				return "no matching notes", nil
			}

			return entries, nil
		},
	)
}
