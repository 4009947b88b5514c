package mcp

import (
	"fmt"
	"regexp"

	"github.com/hupe1980/agentloop/internal/util"
)

// DropDefault is the distinguished default marker meaning "omit this argument
// from the server call entirely when the caller did not supply it".
const DropDefault = "EMPTY"

// identifierPattern restricts caller-facing names to characters that survive
// every model provider's function-name rules.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// SchemaError reports a malformed tool schema. It is raised at construction
// time, never at call time.
type SchemaError struct {
	Schema  string
	Field   string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid tool schema %q: argument %q: %s", e.Schema, e.Field, e.Message)
	}
	return fmt.Sprintf("invalid tool schema %q: %s", e.Schema, e.Message)
}

// Arg declares one argument of a bridged tool: how the caller addresses it,
// how the server expects it, and what happens when the caller omits it.
type Arg struct {
	// ServerName is the argument name in the server call contract.
	ServerName string
	// Name is the caller-facing argument name exposed to the model.
	Name string
	// Description is shown to the model.
	Description string
	// Type is the JSON schema type of the argument ("string", "number", ...).
	Type string
	// Required arguments must be supplied by the caller and must not declare
	// a default.
	Required bool
	// Default holds the fill-in value for optional arguments, or DropDefault
	// to omit the argument from the server call. Every optional argument must
	// declare one.
	Default *string
}

// Schema couples a caller-facing tool declaration with its server call contract.
type Schema struct {
	// ServerTool is the tool name used when dispatching to the server.
	ServerTool string
	// Name is the caller-facing tool name exposed to the model. Empty means
	// same as ServerTool.
	Name string
	// Description is shown to the model.
	Description string
	// Args lists the argument mapping table.
	Args []Arg
}

// CallerName returns the tool name exposed to the model.
func (s Schema) CallerName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ServerTool
}

// Validate checks the schema invariants:
//   - tool and argument caller-facing names match the identifier charset
//   - required arguments declare no default
//   - optional arguments declare a default or the drop marker
//   - no duplicate caller-facing or server argument names
func (s Schema) Validate() error {
	if s.ServerTool == "" {
		return &SchemaError{Schema: s.CallerName(), Message: "server tool name is empty"}
	}

	if !identifierPattern.MatchString(s.CallerName()) {
		return &SchemaError{Schema: s.CallerName(), Message: "tool name contains invalid characters"}
	}

	seenCaller := map[string]bool{}
	seenServer := map[string]bool{}

	for _, arg := range s.Args {
		if arg.Name == "" || arg.ServerName == "" {
			return &SchemaError{Schema: s.CallerName(), Field: arg.Name, Message: "argument name is empty"}
		}

		if !identifierPattern.MatchString(arg.Name) {
			return &SchemaError{Schema: s.CallerName(), Field: arg.Name, Message: "argument name contains invalid characters"}
		}

		if seenCaller[arg.Name] {
			return &SchemaError{Schema: s.CallerName(), Field: arg.Name, Message: "duplicate caller-facing argument name"}
		}
		seenCaller[arg.Name] = true

		if seenServer[arg.ServerName] {
			return &SchemaError{Schema: s.CallerName(), Field: arg.ServerName, Message: "duplicate server argument name"}
		}
		seenServer[arg.ServerName] = true

		if arg.Required && arg.Default != nil {
			return &SchemaError{Schema: s.CallerName(), Field: arg.Name, Message: "required argument must not declare a default"}
		}

		if !arg.Required && arg.Default == nil {
			return &SchemaError{Schema: s.CallerName(), Field: arg.Name, Message: "optional argument must declare a default or the drop marker"}
		}
	}

	return nil
}

// Parameters renders the caller-facing JSON schema exposed to the model.
func (s Schema) Parameters() map[string]any {
	properties := make(map[string]any, len(s.Args))
	required := make([]string, 0, len(s.Args))

	for _, arg := range s.Args {
		argType := arg.Type
		if argType == "" {
			argType = "string"
		}

		prop := map[string]any{"type": argType}
		if arg.Description != "" {
			prop["description"] = arg.Description
		}

		properties[arg.Name] = prop

		if arg.Required {
			required = append(required, arg.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

// SchemaFromDescriptor derives a pass-through schema (caller names equal
// server names) from a server-advertised tool descriptor. Arguments outside
// the descriptor's required list default to the drop marker.
func SchemaFromDescriptor(desc ToolDescriptor) Schema {
	schema := Schema{
		ServerTool:  desc.Name,
		Description: desc.Description,
	}

	if desc.InputSchema == nil {
		return schema
	}

	requiredSet := map[string]bool{}
	for _, name := range util.RequiredFields(desc.InputSchema) {
		requiredSet[name] = true
	}

	properties, _ := desc.InputSchema["properties"].(map[string]any)
	for name, prop := range properties {
		arg := Arg{
			ServerName: name,
			Name:       name,
			Required:   requiredSet[name],
		}

		if propMap, ok := prop.(map[string]any); ok {
			arg.Type, _ = propMap["type"].(string)
			arg.Description, _ = propMap["description"].(string)
		}

		if !arg.Required {
			drop := DropDefault
			arg.Default = &drop
		}

		schema.Args = append(schema.Args, arg)
	}

	return schema
}
