package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// ConverseAPI is the subset of the Bedrock runtime client used here.
type ConverseAPI interface {
	Converse(ctx context.Context, in *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockClient carries the conversation over the Bedrock Converse API.
type BedrockClient struct {
	api   ConverseAPI
	model string
}

// NewBedrockClient wraps a Bedrock runtime client for the given model id.
func NewBedrockClient(api ConverseAPI, model string) *BedrockClient {
	return &BedrockClient{api: api, model: model}
}

// Name returns the provider name.
func (c *BedrockClient) Name() string { return "bedrock" }

// Converse sends the conversation and decodes the assistant turn.
func (c *BedrockClient) Converse(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	in, err := c.buildInput(req)
	if err != nil {
		return nil, err
	}

	out, err := c.api.Converse(ctx, in)
	if err != nil {
		return nil, classifyBedrockError(err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: nil converse output", ErrMalformedResponse)
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil {
		return nil, fmt.Errorf("%w: converse output carries no message", ErrMalformedResponse)
	}

	turn, err := turnFromBedrock(msg.Value)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		StopReason: string(out.StopReason),
		Turn:       turn,
		Model:      c.model,
		Duration:   time.Since(start),
	}
	if out.Usage != nil {
		resp.Usage = Usage{
			InputTokens:  int(aws.ToInt32(out.Usage.InputTokens)),
			OutputTokens: int(aws.ToInt32(out.Usage.OutputTokens)),
		}
	}
	return resp, nil
}

func (c *BedrockClient) buildInput(req Request) (*bedrockruntime.ConverseInput, error) {
	msgs := make([]types.Message, 0, len(req.Turns))
	for _, t := range req.Turns {
		m, err := turnToBedrock(t)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}

	in := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(c.model),
		Messages: msgs,
	}
	if req.System != "" {
		in.System = []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: req.System}}
	}

	// Bedrock rejects an empty tool list, so the tool config is omitted entirely.
	if len(req.Tools) > 0 {
		tools := make([]types.Tool, len(req.Tools))
		for i, t := range req.Tools {
			tools[i] = &types.ToolMemberToolSpec{Value: types.ToolSpecification{
				Name:        aws.String(t.Name),
				Description: aws.String(t.Description),
				InputSchema: &types.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(t.InputSchema)},
			}}
		}
		in.ToolConfig = &types.ToolConfiguration{Tools: tools}
	}

	if req.MaxTokens > 0 || req.Temperature != nil {
		cfg := &types.InferenceConfiguration{}
		if req.MaxTokens > 0 {
			cfg.MaxTokens = aws.Int32(int32(req.MaxTokens))
		}
		if req.Temperature != nil {
			cfg.Temperature = aws.Float32(float32(*req.Temperature))
		}
		in.InferenceConfig = cfg
	}
	return in, nil
}

func turnToBedrock(t Turn) (types.Message, error) {
	role := types.ConversationRoleUser
	if t.Role == RoleAssistant {
		role = types.ConversationRoleAssistant
	}

	content := make([]types.ContentBlock, 0, len(t.Blocks))
	for _, b := range t.Blocks {
		switch b.Type {
		case BlockText:
			content = append(content, &types.ContentBlockMemberText{Value: b.Text})
		case BlockToolUse:
			input := b.Input
			if input == nil {
				input = map[string]any{}
			}
			content = append(content, &types.ContentBlockMemberToolUse{Value: types.ToolUseBlock{
				ToolUseId: aws.String(b.ID),
				Name:      aws.String(b.Name),
				Input:     document.NewLazyDocument(input),
			}})
		case BlockToolResult:
			status := types.ToolResultStatusSuccess
			if b.IsError {
				status = types.ToolResultStatusError
			}
			content = append(content, &types.ContentBlockMemberToolResult{Value: types.ToolResultBlock{
				ToolUseId: aws.String(b.ToolUseID),
				Content: []types.ToolResultContentBlock{
					&types.ToolResultContentBlockMemberJson{Value: document.NewLazyDocument(b.Payload)},
				},
				Status: status,
			}})
		default:
			return types.Message{}, fmt.Errorf("unsupported block type %q", b.Type)
		}
	}
	return types.Message{Role: role, Content: content}, nil
}

func turnFromBedrock(m types.Message) (*Turn, error) {
	turn := &Turn{Role: RoleAssistant}
	for _, cb := range m.Content {
		switch v := cb.(type) {
		case *types.ContentBlockMemberText:
			turn.Blocks = append(turn.Blocks, TextBlock(v.Value))
		case *types.ContentBlockMemberToolUse:
			input, err := decodeDocument(v.Value.Input)
			if err != nil {
				return nil, err
			}
			turn.Blocks = append(turn.Blocks, ToolUseBlock(aws.ToString(v.Value.ToolUseId), aws.ToString(v.Value.Name), input))
		}
	}
	return turn, nil
}

// decodeDocument round-trips through JSON so numbers come back as float64
// rather than smithy document numbers.
func decodeDocument(doc document.Interface) (map[string]any, error) {
	input := map[string]any{}
	if doc == nil {
		return input, nil
	}
	raw, err := doc.MarshalSmithyDocument()
	if err != nil {
		return nil, fmt.Errorf("%w: encoding tool input: %v", ErrMalformedResponse, err)
	}
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, fmt.Errorf("%w: decoding tool input: %v", ErrMalformedResponse, err)
	}
	return input, nil
}

func classifyBedrockError(err error) error {
	var (
		throttled   *types.ThrottlingException
		unavailable *types.ServiceUnavailableException
		internal    *types.InternalServerException
		denied      *types.AccessDeniedException
		notReady    *types.ModelNotReadyException
	)
	switch {
	case errors.As(err, &throttled):
		return &ProviderError{Provider: "bedrock", Code: 429, Message: err.Error()}
	case errors.As(err, &unavailable), errors.As(err, &notReady):
		return &ProviderError{Provider: "bedrock", Code: 503, Message: err.Error()}
	case errors.As(err, &internal):
		return &ProviderError{Provider: "bedrock", Code: 500, Message: err.Error()}
	case errors.As(err, &denied):
		return &ProviderError{Provider: "bedrock", Code: 403, Message: err.Error()}
	}
	return fmt.Errorf("bedrock converse: %w", err)
}
