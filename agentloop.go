// Package agentloop provides a high-level façade over the bounded
// reason-then-act loop: agents that may call external tools, optionally
// delegate to nested sub-agents, and always terminate with a single
// validated textual answer or a structured abort. Most applications interact
// with this package by:
//  1. Creating an Agent via NewAgent() with a model and tool set
//  2. Calling Run() for a synchronous verdict, or Stream() for the ordered
//     chunk protocol (including nested sub-agent chunks)
//  3. Optionally wrapping agents as tools of other agents via AsSubAgentTool()
//
// The façade delegates loop mechanics to the engine, guard and validate
// packages while keeping setup concise. All defaults are safe for local
// development and testing; production deployments typically supply an
// LLM-backed usability judge and a structured logger.
package agentloop

import (
	"github.com/hupe1980/agentloop/agent"
	"github.com/hupe1980/agentloop/model"
)

// Agent is a runnable unit exposing run and stream entry points.
type Agent = agent.Agent

// Options configure an Agent.
type Options = agent.Options

// RunResult is the structured outcome of one run.
type RunResult = agent.RunResult

// NewAgent assembles an agent from a model and options.
func NewAgent(name string, m model.Model, optFns ...func(o *Options)) (*Agent, error) {
	return agent.New(name, m, optFns...)
}

// AsSubAgentTool wraps a fully configured agent as an invocable tool so it
// can be listed among an outer agent's tools.
var AsSubAgentTool = agent.AsTool
