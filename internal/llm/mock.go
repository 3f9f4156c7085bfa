package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockClient is a test double for Client.
type MockClient struct {
	ProviderName string
	ConverseFunc func(ctx context.Context, req Request) (*Response, error)
}

func (m *MockClient) Name() string { return m.ProviderName }

func (m *MockClient) Converse(ctx context.Context, req Request) (*Response, error) {
	if m.ConverseFunc != nil {
		return m.ConverseFunc(ctx, req)
	}
	return FinalAnswer("mock response"), nil
}

// ScriptedClient replays a fixed sequence of responses and records every request.
// Once the script runs out, the last response is repeated.
type ScriptedClient struct {
	mu        sync.Mutex
	responses []*Response
	requests  []Request
}

// NewScriptedClient creates a client that answers with responses in order.
func NewScriptedClient(responses ...*Response) *ScriptedClient {
	return &ScriptedClient{responses: responses}
}

func (s *ScriptedClient) Name() string { return "scripted" }

func (s *ScriptedClient) Converse(_ context.Context, req Request) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)
	if len(s.responses) == 0 {
		return nil, fmt.Errorf("scripted client: no responses configured")
	}
	idx := len(s.requests) - 1
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	return s.responses[idx], nil
}

// Requests returns the requests received so far.
func (s *ScriptedClient) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// FinalAnswer builds an end_turn response carrying one text block.
func FinalAnswer(text string) *Response {
	return &Response{
		StopReason: StopEndTurn,
		Turn:       &Turn{Role: RoleAssistant, Blocks: []Block{TextBlock(text)}},
	}
}

// ToolRequest builds a tool_use response carrying the given blocks.
func ToolRequest(blocks ...Block) *Response {
	return &Response{
		StopReason: StopToolUse,
		Turn:       &Turn{Role: RoleAssistant, Blocks: blocks},
	}
}
