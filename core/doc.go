// Package core contains the shared data model of AgentLoop: the message
// trace, the loop status classifier, per-run mutable state and the externally
// observable stream chunk protocol. It has no dependencies on the engine,
// guard or agent packages so every layer can build on it.
package core
