package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/soyeahso/alarmhound/internal/version"
)

// DefaultAnthropicEndpoint is the Messages API URL.
const DefaultAnthropicEndpoint = "https://api.anthropic.com/v1/messages"

// AnthropicClient talks to the Anthropic Messages API directly over HTTP.
type AnthropicClient struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewAnthropicClient creates a Messages API client. An empty endpoint uses the public API.
func NewAnthropicClient(apiKey, model, endpoint string) *AnthropicClient {
	if endpoint == "" {
		endpoint = DefaultAnthropicEndpoint
	}
	return &AnthropicClient{
		apiKey:   apiKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 120 * time.Second},
	}
}

// Name returns the provider name.
func (c *AnthropicClient) Name() string { return "anthropic" }

// Converse sends the conversation and decodes the assistant turn.
func (c *AnthropicClient) Converse(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	payload, err := json.Marshal(c.buildRequestBody(req))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")
	httpReq.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: c.Name(), Code: resp.StatusCode, Message: string(respBody)}
	}

	var result anthropicResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return result.toResponse(time.Since(start))
}

func (c *AnthropicClient) buildRequestBody(req Request) map[string]any {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	body := map[string]any{
		"model":      c.model,
		"messages":   turnsToAnthropic(req.Turns),
		"max_tokens": maxTokens,
	}
	if req.System != "" {
		body["system"] = req.System
	}
	if req.Temperature != nil {
		body["temperature"] = *req.Temperature
	}
	if len(req.Tools) > 0 {
		tools := make([]map[string]any, len(req.Tools))
		for i, t := range req.Tools {
			tools[i] = map[string]any{
				"name":         t.Name,
				"description":  t.Description,
				"input_schema": t.InputSchema,
			}
		}
		body["tools"] = tools
	}
	return body
}

func turnsToAnthropic(turns []Turn) []map[string]any {
	out := make([]map[string]any, len(turns))
	for i, t := range turns {
		blocks := make([]map[string]any, 0, len(t.Blocks))
		for _, b := range t.Blocks {
			switch b.Type {
			case BlockText:
				blocks = append(blocks, map[string]any{"type": "text", "text": b.Text})
			case BlockToolUse:
				input := b.Input
				if input == nil {
					input = map[string]any{}
				}
				blocks = append(blocks, map[string]any{"type": "tool_use", "id": b.ID, "name": b.Name, "input": input})
			case BlockToolResult:
				content, _ := json.Marshal(b.Payload)
				blocks = append(blocks, map[string]any{
					"type":        "tool_result",
					"tool_use_id": b.ToolUseID,
					"content":     string(content),
					"is_error":    b.IsError,
				})
			}
		}
		out[i] = map[string]any{"role": string(t.Role), "content": blocks}
	}
	return out
}

type anthropicResponse struct {
	ID         string                  `json:"id"`
	Role       string                  `json:"role"`
	Content    []anthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Usage      anthropicUsage          `json:"usage"`
}

type anthropicContentBlock struct {
	Type  string         `json:"type"`
	Text  string         `json:"text,omitempty"`
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

func (r *anthropicResponse) toResponse(d time.Duration) (*Response, error) {
	if r.Content == nil {
		return nil, fmt.Errorf("%w: no content in anthropic response", ErrMalformedResponse)
	}
	turn := &Turn{Role: RoleAssistant}
	for _, b := range r.Content {
		switch b.Type {
		case "text":
			turn.Blocks = append(turn.Blocks, TextBlock(b.Text))
		case "tool_use":
			turn.Blocks = append(turn.Blocks, ToolUseBlock(b.ID, b.Name, b.Input))
		}
	}
	return &Response{
		StopReason: r.StopReason,
		Turn:       turn,
		Usage:      Usage{InputTokens: r.Usage.InputTokens, OutputTokens: r.Usage.OutputTokens},
		Model:      r.Model,
		Duration:   d,
	}, nil
}
