// Package logging defines the minimal structured logging contract used across
// AgentLoop along with slog-backed and no-op implementations.
package logging
