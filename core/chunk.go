package core

// StreamLevel distinguishes chunks of the agent's own run from chunks
// forwarded out of a nested sub-agent run.
type StreamLevel string

const (
	// LevelOuter marks chunks produced by the streaming agent itself.
	LevelOuter StreamLevel = "outer"
	// LevelInner marks chunks forwarded from a nested sub-agent run.
	LevelInner StreamLevel = "inner"
)

// StreamEvent is the kind of an externally observable stream chunk.
type StreamEvent string

const (
	// EventStart announces the beginning of a (sub-)agent run.
	EventStart StreamEvent = "start"
	// EventToolRequest announces a requested tool invocation.
	EventToolRequest StreamEvent = "toolcall_requested"
	// EventToolResult announces a completed tool invocation.
	EventToolResult StreamEvent = "toolcall_result"
	// EventFinal carries the validated final answer and terminates the stream.
	EventFinal StreamEvent = "final_answer"
	// EventAborted carries the abort reason and terminates the stream.
	EventAborted StreamEvent = "aborted"
	// EventCustom carries an opaque payload forwarded without reinterpretation.
	EventCustom StreamEvent = "custom"
)

// StreamChunk is one unit of the external event protocol. Chunks are created
// per observed trace update, emitted exactly once and never mutated after
// emission.
type StreamChunk struct {
	ID             string      `json:"id"`
	Level          StreamLevel `json:"level"`
	Event          StreamEvent `json:"event"`
	AgentName      string      `json:"agent_name"`
	ToolName       string      `json:"tool_name,omitempty"`
	ToolCallID     string      `json:"toolcall_id,omitempty"`
	Payload        string      `json:"payload,omitempty"`
	Aborted        bool        `json:"aborted,omitempty"`
	AbortionReason string      `json:"abortion_reason,omitempty"`
}

// NewStreamChunk creates a chunk with a fresh unique ID.
func NewStreamChunk(level StreamLevel, event StreamEvent, agentName string) StreamChunk {
	return StreamChunk{ID: NewID(), Level: level, Event: event, AgentName: agentName}
}

// IsTerminal reports whether the chunk ends emission for its run.
func (c StreamChunk) IsTerminal() bool {
	return c.Event == EventFinal || c.Event == EventAborted
}

// AsInner returns a copy of the chunk re-tagged to the inner level. Used when
// a parent forwards a sub-agent's chunks through its own stream.
func (c StreamChunk) AsInner() StreamChunk {
	c.Level = LevelInner

	return c
}
