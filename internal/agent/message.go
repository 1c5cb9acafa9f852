package agent

import (
	"encoding/json"
	"fmt"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message 是对话中的一条消息，Content 的顺序即语义顺序。
type Message struct {
	Role    Role
	Content []ContentBlock
}

// NewUserText 构造只含一段文本的用户消息。
func NewUserText(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{TextBlock{Text: text}}}
}

func (m Message) MarshalJSON() ([]byte, error) {
	content := m.Content
	if content == nil {
		content = []ContentBlock{}
	}
	return json.Marshal(struct {
		Role    Role           `json:"role"`
		Content []ContentBlock `json:"content"`
	}{m.Role, content})
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role    Role              `json:"role"`
		Content []json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Role {
	case RoleUser, RoleAssistant:
	default:
		return fmt.Errorf("unsupported message role %q", raw.Role)
	}
	content, err := UnmarshalBlocks(raw.Content)
	if err != nil {
		return fmt.Errorf("%s message: %w", raw.Role, err)
	}
	m.Role = raw.Role
	m.Content = content
	return nil
}

// IsUserActionOnly 判断消息是否完全由 UserActionBlock 组成（空消息不算）。
func (m Message) IsUserActionOnly() bool {
	if len(m.Content) == 0 {
		return false
	}
	for _, block := range m.Content {
		if _, ok := block.(UserActionBlock); !ok {
			return false
		}
	}
	return true
}

// ToolUses 返回消息中按顺序出现的工具调用。
func (m Message) ToolUses() []ToolUseBlock {
	var out []ToolUseBlock
	for _, block := range m.Content {
		if tu, ok := block.(ToolUseBlock); ok {
			out = append(out, tu)
		}
	}
	return out
}

// Text 拼接消息中的全部文本块。
func (m Message) Text() string {
	var out string
	for _, block := range m.Content {
		if tb, ok := block.(TextBlock); ok {
			if out != "" {
				out += "\n"
			}
			out += tb.Text
		}
	}
	return out
}
