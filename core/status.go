package core

// LoopStatus classifies where a run currently stands in its tool-calling loop.
type LoopStatus string

const (
	// StatusPending means no model response has been produced yet.
	StatusPending LoopStatus = "pending"
	// StatusToolCallRequested means the last message requests tool execution.
	StatusToolCallRequested LoopStatus = "toolcall_requested"
	// StatusToolResultOnly means the trace ends in raw tool results without a
	// summarizing model response. Reached when the model call budget was
	// exhausted before a closing call could run.
	StatusToolResultOnly LoopStatus = "toolcall_results_only"
	// StatusDirectAnswer means the model answered without any tool usage.
	StatusDirectAnswer LoopStatus = "direct_answer"
	// StatusToolBasedAnswer means the model answered after one or more tool calls.
	StatusToolBasedAnswer LoopStatus = "tool_based_answer"
	// StatusAborted means the loop terminated on an unrecoverable condition.
	StatusAborted LoopStatus = "aborted"
)

// AbortionCode is a machine-readable reason attached to aborted runs.
type AbortionCode string

const (
	// AbortNone marks the absence of an abortion reason.
	AbortNone AbortionCode = ""
	// AbortNoToolMatch is set when the model requests a tool that is not registered.
	AbortNoToolMatch AbortionCode = "NO_MATCHING_TOOL_FOUND"
	// AbortToolError is set when a tool server reported a call failure.
	AbortToolError AbortionCode = "MCP_TOOL_ERROR"
	// AbortDirectAnswersForbidden is set when the model answered directly but
	// the agent configuration forbids direct answers.
	AbortDirectAnswersForbidden AbortionCode = "DIRECT_ANSWERS_FORBIDDEN"
	// AbortDirectAnswerUnusable is set when the usability judge rejected a direct answer.
	AbortDirectAnswerUnusable AbortionCode = "DIRECT_AGENT_RESPONSE_UNUSABLE"
	// AbortHallucination is reserved for grounding validators.
	AbortHallucination AbortionCode = "HALLUCINATION_DETECTED"
	// AbortUnknown is the defensive fallback for unrecognized trace shapes.
	AbortUnknown AbortionCode = "UNKNOWN_ABORTION"
)

// DetectedStatus pairs a loop status with an optional abortion code.
type DetectedStatus struct {
	Status       LoopStatus
	AbortionCode AbortionCode
}

// Classify detects the current loop status of a run from its message trace.
//
// It is a pure, total function of the last message plus whether any tool
// result exists earlier in the trace. The cases, checked in order:
//
//   - Pending: the last message is a user message; the first model call has
//     not happened yet.
//   - Aborted(MCP_TOOL_ERROR): the last message is a tool result carrying the
//     error marker set by the tool bridge.
//   - ToolCallRequested: the last message is an assistant message with one or
//     more pending tool calls.
//   - ToolResultOnly: the last message is an error-free tool result. Occurs
//     when the model call limit was reached before a summarizing call.
//   - DirectAnswer: the last message is an assistant message without tool
//     calls and no tool result exists anywhere in the trace.
//   - ToolBasedAnswer: the last message is an assistant message without tool
//     calls and at least one tool result exists earlier.
//   - Aborted(UNKNOWN_ABORTION): none of the above matched. Hitting this
//     branch indicates a gap in case coverage; callers log it loudly.
func Classify(trace Trace) DetectedStatus {
	last, ok := trace.Last()
	if !ok {
		return DetectedStatus{Status: StatusAborted, AbortionCode: AbortUnknown}
	}

	if last.Role == RoleUser {
		return DetectedStatus{Status: StatusPending}
	}

	if last.IsToolError() {
		return DetectedStatus{Status: StatusAborted, AbortionCode: AbortToolError}
	}

	if last.HasToolCalls() {
		return DetectedStatus{Status: StatusToolCallRequested}
	}

	if last.Role == RoleTool {
		return DetectedStatus{Status: StatusToolResultOnly}
	}

	if last.Role == RoleAssistant {
		if len(trace.ToolResults()) == 0 {
			return DetectedStatus{Status: StatusDirectAnswer}
		}

		return DetectedStatus{Status: StatusToolBasedAnswer}
	}

	return DetectedStatus{Status: StatusAborted, AbortionCode: AbortUnknown}
}
