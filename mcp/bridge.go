package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/tool"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// BridgeOptions configure a bridged tool.
type BridgeOptions struct {
	// ServerName identifies the server in logs and transport errors.
	ServerName string
	// Logger receives argument-mapping diagnostics. Defaults to no-op.
	Logger logging.Logger
}

// BridgedTool exposes one server-side tool under a caller-facing schema. It
// implements tool.Tool, so bridged tools are listed among an agent's tools
// like any locally implemented function.
type BridgedTool struct {
	server ToolServer
	schema Schema
	opts   BridgeOptions
}

// NewBridgedTool validates the schema and builds the callable. Schema
// violations are the only hard construction errors; everything that can go
// wrong at call time is reported through the tool error contract instead.
func NewBridgedTool(server ToolServer, schema Schema, optFns ...func(o *BridgeOptions)) (*BridgedTool, error) {
	opts := BridgeOptions{
		ServerName: "mcp",
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := schema.Validate(); err != nil {
		return nil, err
	}

	return &BridgedTool{server: server, schema: schema, opts: opts}, nil
}

// DiscoverTools lists the server's advertised tools and bridges each one with
// a pass-through schema. Use explicit schemas instead when caller-facing
// names, descriptions or defaults should differ from the server contract.
func DiscoverTools(ctx context.Context, server ToolServer, optFns ...func(o *BridgeOptions)) ([]tool.Tool, error) {
	opts := BridgeOptions{ServerName: "mcp"}
	for _, fn := range optFns {
		fn(&opts)
	}

	descriptors, err := server.ListTools(ctx)
	if err != nil {
		return nil, &TransportError{Server: opts.ServerName, Op: "list_tools", Err: err}
	}

	tools := make([]tool.Tool, 0, len(descriptors))
	for _, desc := range descriptors {
		bridged, err := NewBridgedTool(server, SchemaFromDescriptor(desc), optFns...)
		if err != nil {
			return nil, err
		}
		tools = append(tools, bridged)
	}

	return tools, nil
}

// Name returns the caller-facing tool name.
func (t *BridgedTool) Name() string { return t.schema.CallerName() }

// Description returns the caller-facing tool description.
func (t *BridgedTool) Description() string { return t.schema.Description }

// Parameters returns the caller-facing JSON schema.
func (t *BridgedTool) Parameters() map[string]any { return t.schema.Parameters() }

// Call maps the caller arguments onto the server contract and dispatches.
//
// Mapping rules, per declared argument:
//   - a caller-supplied value always wins and is forwarded verbatim
//   - a missing required argument is a tool error
//   - a missing optional argument is dropped (drop marker) or filled with
//     its declared default
//
// Caller-supplied names outside the schema are logged and ignored. A
// server-reported failure comes back as *tool.ToolError so the loop records
// it as an error result; transport failures come back as *TransportError.
func (t *BridgedTool) Call(ctx context.Context, args string) (string, error) {
	payload, err := t.buildPayload(args)
	if err != nil {
		return "", err
	}

	t.opts.Logger.Debug("mcp.call", "server", t.opts.ServerName, "tool", t.schema.ServerTool, "args", payload)

	result, err := t.server.Call(ctx, t.schema.ServerTool, payload)
	if err != nil {
		return "", &TransportError{Server: t.opts.ServerName, Op: "call " + t.schema.ServerTool, Err: err}
	}

	if result.IsError {
		t.opts.Logger.Warn("mcp.call.tool_error",
			"server", t.opts.ServerName, "tool", t.schema.ServerTool, "result", result.Text)

		return "", &tool.ToolError{
			Tool:    t.Name(),
			Message: result.Text,
			Code:    "MCP_TOOL_ERROR",
		}
	}

	return result.Text, nil
}

// buildPayload constructs the server argument object from the raw caller
// argument object.
func (t *BridgedTool) buildPayload(args string) (string, error) {
	if args != "" && !gjson.Valid(args) {
		return "", &tool.ToolError{
			Tool:    t.Name(),
			Message: "malformed argument payload",
			Code:    "INVALID_ARGUMENTS",
		}
	}

	known := make(map[string]bool, len(t.schema.Args))
	payload := "{}"

	var err error
	for _, arg := range t.schema.Args {
		known[arg.Name] = true

		supplied := gjson.Get(args, escapePath(arg.Name))
		if supplied.Exists() {
			// Caller value wins, forwarded verbatim.
			if payload, err = sjson.SetRaw(payload, escapePath(arg.ServerName), supplied.Raw); err != nil {
				return "", fmt.Errorf("set argument %q: %w", arg.ServerName, err)
			}
			continue
		}

		if arg.Required {
			return "", &tool.ToolError{
				Tool:    t.Name(),
				Message: fmt.Sprintf("required argument %q missing", arg.Name),
				Code:    "MISSING_REQUIRED_ARGUMENT",
			}
		}

		if *arg.Default == DropDefault {
			continue
		}

		if payload, err = sjson.Set(payload, escapePath(arg.ServerName), *arg.Default); err != nil {
			return "", fmt.Errorf("set default for %q: %w", arg.ServerName, err)
		}
	}

	// Extra caller arguments are a warning, not a failure.
	gjson.Parse(args).ForEach(func(key, _ gjson.Result) bool {
		if !known[key.String()] {
			t.opts.Logger.Warn("mcp.call.unexpected_argument",
				"server", t.opts.ServerName, "tool", t.schema.ServerTool, "argument", key.String())
		}
		return true
	})

	// Exhaustive check of the constructed call against the contract.
	for _, arg := range t.schema.Args {
		if arg.Required && !gjson.Get(payload, escapePath(arg.ServerName)).Exists() {
			return "", &tool.ToolError{
				Tool:    t.Name(),
				Message: fmt.Sprintf("constructed call misses required server argument %q", arg.ServerName),
				Code:    "MISSING_REQUIRED_ARGUMENT",
			}
		}
	}

	return payload, nil
}

// escapePath escapes path syntax in an argument name so gjson and sjson
// address it as a literal object key. The identifier charset permits dots,
// which both libraries would otherwise read as nesting.
func escapePath(name string) string {
	return strings.ReplaceAll(name, ".", `\.`)
}
