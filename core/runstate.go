package core

// InstructionMarker names the instruction variant that produced an assistant message.
type InstructionMarker string

const (
	// InstructionInitial marks responses produced with the base instructions.
	InstructionInitial InstructionMarker = "initial"
	// InstructionDirectAnswer marks responses produced with the direct answer variant.
	InstructionDirectAnswer InstructionMarker = "direct_answer"
	// InstructionToolBasedAnswer marks responses produced with the tool-based answer variant.
	InstructionToolBasedAnswer InstructionMarker = "toolbased_answer"
)

// RunState is the per-run mutable record threaded through every guardrail
// hook. It is owned exclusively by one agent run and never shared across
// concurrent runs; hooks within a run execute strictly sequentially, so no
// locking is required.
type RunState struct {
	RunID     string
	AgentName string

	// Loop accounting.
	ModelCalls            int
	ModelCallLimitReached bool
	ToolCalls             int

	// Tool failure details recorded by the abort-on-tool-error hook.
	ToolCallError bool
	ErrorToolName string

	// Which instruction variant closed the run, written by the
	// final-instruction documentation hook.
	FinalInstructionSwitched bool
	FinalInstructionUsed     InstructionMarker

	// Validated outcome, written by the after-run validator.
	Aborted          bool
	AbortionCode     AbortionCode
	AbortDescription string
	Output           string
	OutputValid      bool
	FinalStatus      LoopStatus
}

// NewRunState creates a fresh run state with a unique run ID.
func NewRunState(agentName string) *RunState {
	return &RunState{
		RunID:                agentName + "-" + NewID(),
		AgentName:            agentName,
		FinalInstructionUsed: InstructionInitial,
	}
}

// Abort records an abort outcome. The first recorded code wins; later calls
// only fill in a missing description.
func (rs *RunState) Abort(code AbortionCode, description string) {
	if rs.Aborted {
		if rs.AbortDescription == "" {
			rs.AbortDescription = description
		}

		return
	}

	rs.Aborted = true
	rs.AbortionCode = code
	rs.AbortDescription = description
	rs.OutputValid = false
}
