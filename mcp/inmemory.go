package mcp

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/hupe1980/agentloop/tool"
)

// InMemoryServer serves locally registered tools through the ToolServer
// protocol. Useful for tests, examples and embedding tools in-process while
// keeping the bridge's argument mapping in the call path.
type InMemoryServer struct {
	mu    sync.RWMutex
	tools map[string]tool.Tool
}

// NewInMemoryServer creates a server with the given tools registered.
func NewInMemoryServer(tools ...tool.Tool) *InMemoryServer {
	s := &InMemoryServer{tools: make(map[string]tool.Tool, len(tools))}
	for _, t := range tools {
		s.tools[t.Name()] = t
	}

	return s
}

// Register adds or replaces a tool.
func (s *InMemoryServer) Register(t tool.Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools[t.Name()] = t
}

// ListTools implements ToolServer.
func (s *InMemoryServer) ListTools(_ context.Context) ([]ToolDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	descriptors := make([]ToolDescriptor, 0, len(s.tools))
	for _, t := range s.tools {
		descriptors = append(descriptors, ToolDescriptor{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.Parameters(),
		})
	}

	sort.Slice(descriptors, func(i, j int) bool { return descriptors[i].Name < descriptors[j].Name })

	return descriptors, nil
}

// Call implements ToolServer. Tool failures are reported in-band via
// CallResult.IsError; only unknown tools surface as transport-level errors.
func (s *InMemoryServer) Call(ctx context.Context, name, args string) (CallResult, error) {
	s.mu.RLock()
	t, ok := s.tools[name]
	s.mu.RUnlock()

	if !ok {
		return CallResult{}, errors.New("unknown tool: " + name)
	}

	text, err := t.Call(ctx, args)
	if err != nil {
		var toolErr *tool.ToolError
		if errors.As(err, &toolErr) {
			return CallResult{Text: toolErr.Message, IsError: true}, nil
		}

		return CallResult{}, err
	}

	return CallResult{Text: text}, nil
}
