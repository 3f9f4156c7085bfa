package llm

// Role identifies who produced a turn.
type Role string

// Role constants for turns. The requester is the investigator side of the
// conversation; the responder is the reasoning service.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockType tags the variant carried by a Block.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// Block is one content block of a turn. Exactly the fields of its Type are set.
type Block struct {
	Type BlockType `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// tool_use
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`

	// tool_result
	ToolUseID string         `json:"toolUseId,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	IsError   bool           `json:"isError,omitempty"`
}

// TextBlock builds a text block.
func TextBlock(text string) Block {
	return Block{Type: BlockText, Text: text}
}

// ToolUseBlock builds a capability invocation request.
func ToolUseBlock(id, name string, input map[string]any) Block {
	return Block{Type: BlockToolUse, ID: id, Name: name, Input: input}
}

// ToolResultBlock builds the result answering the request with the given id.
func ToolResultBlock(toolUseID string, payload map[string]any, isError bool) Block {
	return Block{Type: BlockToolResult, ToolUseID: toolUseID, Payload: payload, IsError: isError}
}

// Turn is a single message in the conversation.
type Turn struct {
	Role   Role    `json:"role"`
	Blocks []Block `json:"content"`
}

// Text returns the first text block of the turn.
func (t Turn) Text() (string, bool) {
	for _, b := range t.Blocks {
		if b.Type == BlockText {
			return b.Text, true
		}
	}
	return "", false
}

// ToolUses returns the tool_use blocks in the order they appear.
func (t Turn) ToolUses() []Block {
	var uses []Block
	for _, b := range t.Blocks {
		if b.Type == BlockToolUse {
			uses = append(uses, b)
		}
	}
	return uses
}

// Conversation is an append-only turn history. The zero value is empty and ready to use.
type Conversation struct {
	turns []Turn
}

// Append adds a turn to the end of the history.
func (c *Conversation) Append(t Turn) {
	c.turns = append(c.turns, t)
}

// Turns returns a copy of the history so callers cannot rewrite it.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of turns.
func (c *Conversation) Len() int { return len(c.turns) }

// Last returns the most recent turn.
func (c *Conversation) Last() (Turn, bool) {
	if len(c.turns) == 0 {
		return Turn{}, false
	}
	return c.turns[len(c.turns)-1], true
}
