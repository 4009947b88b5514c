package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestSchemaValidate(t *testing.T) {
	tests := []struct {
		name    string
		schema  Schema
		wantErr string
	}{
		{
			name: "valid schema",
			schema: Schema{
				ServerTool: "search_documents",
				Args: []Arg{
					{ServerName: "q", Name: "query", Required: true},
					{ServerName: "limit", Name: "limit", Default: strPtr("10")},
					{ServerName: "cursor", Name: "cursor", Default: strPtr(DropDefault)},
				},
			},
		},
		{
			name:    "empty server tool",
			schema:  Schema{Name: "search"},
			wantErr: "server tool name is empty",
		},
		{
			name:    "invalid tool name",
			schema:  Schema{ServerTool: "search docs"},
			wantErr: "invalid characters",
		},
		{
			name: "invalid argument name",
			schema: Schema{
				ServerTool: "search",
				Args:       []Arg{{ServerName: "q", Name: "my query", Required: true}},
			},
			wantErr: "invalid characters",
		},
		{
			name: "required with default",
			schema: Schema{
				ServerTool: "search",
				Args:       []Arg{{ServerName: "q", Name: "query", Required: true, Default: strPtr("x")}},
			},
			wantErr: "must not declare a default",
		},
		{
			name: "optional without default",
			schema: Schema{
				ServerTool: "search",
				Args:       []Arg{{ServerName: "limit", Name: "limit"}},
			},
			wantErr: "must declare a default",
		},
		{
			name: "duplicate caller name",
			schema: Schema{
				ServerTool: "search",
				Args: []Arg{
					{ServerName: "q", Name: "query", Required: true},
					{ServerName: "q2", Name: "query", Required: true},
				},
			},
			wantErr: "duplicate caller-facing argument",
		},
		{
			name: "duplicate server name",
			schema: Schema{
				ServerTool: "search",
				Args: []Arg{
					{ServerName: "q", Name: "query", Required: true},
					{ServerName: "q", Name: "question", Required: true},
				},
			},
			wantErr: "duplicate server argument",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSchemaParameters(t *testing.T) {
	schema := Schema{
		ServerTool: "search_documents",
		Name:       "search",
		Args: []Arg{
			{ServerName: "q", Name: "query", Description: "Search query", Required: true},
			{ServerName: "limit", Name: "limit", Type: "integer", Default: strPtr("10")},
		},
	}

	params := schema.Parameters()
	assert.Equal(t, "object", params["type"])

	props := params["properties"].(map[string]any)
	require.Contains(t, props, "query")
	require.Contains(t, props, "limit")
	assert.Equal(t, "string", props["query"].(map[string]any)["type"])
	assert.Equal(t, "Search query", props["query"].(map[string]any)["description"])
	assert.Equal(t, "integer", props["limit"].(map[string]any)["type"])

	assert.Equal(t, []string{"query"}, params["required"])
}

func TestSchemaCallerName(t *testing.T) {
	assert.Equal(t, "search", Schema{ServerTool: "search_documents", Name: "search"}.CallerName())
	assert.Equal(t, "search_documents", Schema{ServerTool: "search_documents"}.CallerName())
}

func TestSchemaFromDescriptor(t *testing.T) {
	desc := ToolDescriptor{
		Name:        "get_weather",
		Description: "Get the weather",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"city": map[string]any{"type": "string", "description": "City name"},
				"days": map[string]any{"type": "integer"},
			},
			"required": []any{"city"},
		},
	}

	schema := SchemaFromDescriptor(desc)
	require.NoError(t, schema.Validate())
	assert.Equal(t, "get_weather", schema.CallerName())
	require.Len(t, schema.Args, 2)

	byName := map[string]Arg{}
	for _, arg := range schema.Args {
		byName[arg.Name] = arg
	}

	assert.True(t, byName["city"].Required)
	assert.Nil(t, byName["city"].Default)
	assert.False(t, byName["days"].Required)
	require.NotNil(t, byName["days"].Default)
	assert.Equal(t, DropDefault, *byName["days"].Default)
}
