// Package llm models the turn-based conversation with a reasoning service and
// the providers that can carry it.
//
// A provider is a synchronous request/response call: it receives the system
// prompt, the advertised tool set, and the full history, and returns one
// assistant turn plus the reason the model stopped.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Stop reasons reported by providers. Any other value is passed through as-is.
const (
	StopEndTurn = "end_turn"
	StopToolUse = "tool_use"
)

// ErrMalformedResponse reports a provider response that is missing required fields.
var ErrMalformedResponse = errors.New("malformed reasoning service response")

// ToolSpec describes a tool the model can invoke.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Request is the input to a Converse call.
type Request struct {
	System      string     `json:"system,omitempty"`
	Turns       []Turn     `json:"messages"`
	Tools       []ToolSpec `json:"tools"`
	MaxTokens   int        `json:"maxTokens,omitempty"`
	Temperature *float64   `json:"temperature,omitempty"`
}

// Response is the result of a Converse call.
type Response struct {
	StopReason string        `json:"stopReason"`
	Turn       *Turn         `json:"turn"`
	Usage      Usage         `json:"usage"`
	Model      string        `json:"model,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
}

// Validate reports ErrMalformedResponse when the response has no turn to append.
func (r *Response) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil response", ErrMalformedResponse)
	}
	if r.Turn == nil {
		return fmt.Errorf("%w: missing output message", ErrMalformedResponse)
	}
	return nil
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Client is the interface all reasoning providers implement.
type Client interface {
	// Converse sends the whole conversation and returns the next assistant turn.
	Converse(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider name (e.g., "bedrock", "anthropic").
	Name() string
}

// ProviderError is returned when a provider rejects a call.
type ProviderError struct {
	Provider string
	Message  string
	Code     int // HTTP-like status code (401, 429, 500, etc.)
}

func (e *ProviderError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("%s: %d %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}
