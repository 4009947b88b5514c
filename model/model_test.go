package model

import (
	"context"
	"testing"

	"github.com/hupe1980/agentloop/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, respCh <-chan Response, errCh <-chan error) ([]Response, error) {
	t.Helper()

	var responses []Response
	for r := range respCh {
		responses = append(responses, r)
	}

	return responses, <-errCh
}

func TestMockModelReplaysTurns(t *testing.T) {
	m := NewMockModel(
		core.NewToolCallMessage("", core.ToolCall{ID: "1", Name: "add", Arguments: `{"a":"2"}`}),
		core.NewAssistantMessage("done"),
	)

	respCh, errCh := m.Generate(context.Background(), Request{Trace: core.Trace{core.NewUserMessage("q")}})
	responses, err := drain(t, respCh, errCh)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.True(t, responses[0].Message.HasToolCalls())
	assert.Equal(t, "tool_calls", responses[0].FinishReason)

	respCh, errCh = m.Generate(context.Background(), Request{})
	responses, err = drain(t, respCh, errCh)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, "done", responses[0].Message.Content)
	assert.Equal(t, "stop", responses[0].FinishReason)

	// Exhausted script surfaces an error.
	respCh, errCh = m.Generate(context.Background(), Request{})
	_, err = drain(t, respCh, errCh)
	assert.Error(t, err)
}

func TestMockModelStreamsTextTurns(t *testing.T) {
	m := NewMockModel(core.NewAssistantMessage("hi"))

	respCh, errCh := m.Generate(context.Background(), Request{Stream: true})
	responses, err := drain(t, respCh, errCh)
	require.NoError(t, err)
	require.Len(t, responses, 3)
	assert.True(t, responses[0].Partial)
	assert.Equal(t, "h", responses[0].Message.Content)
	assert.False(t, responses[2].Partial)
	assert.Equal(t, "hi", responses[2].Message.Content)
}

func TestMockModelRecordsRequests(t *testing.T) {
	m := NewMockModel(core.NewAssistantMessage("ok"))

	req := Request{Instructions: "be brief", Tools: []ToolDefinition{{Type: "function"}}}
	respCh, errCh := m.Generate(context.Background(), req)
	_, err := drain(t, respCh, errCh)
	require.NoError(t, err)

	require.Len(t, m.Requests, 1)
	assert.Equal(t, "be brief", m.Requests[0].Instructions)
	assert.Len(t, m.Requests[0].Tools, 1)
}
