// Package mcp contains the tool-invocation bridge: it maps a caller-facing
// argument schema onto the call contract of a remote tool server, injecting
// declared defaults and converting server-reported failures into the uniform
// tool error marker the loop classifier understands.
//
// The transport itself (connect, ping, reconnect, close) is the server
// implementation's responsibility; the bridge only requires a call that
// either succeeds with text or reports an error.
package mcp
