package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// BlockType 是内容块的类型标签，与 JSON 中的 "type" 字段一致。
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockImage      BlockType = "image"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
	BlockThinking   BlockType = "thinking"
	BlockUserAction BlockType = "user_action"
)

// ContentBlock 是封闭的内容块联合类型，只有本包内定义的类型可以实现它。
type ContentBlock interface {
	Type() BlockType
	isContentBlock()
}

type TextBlock struct {
	Text string
}

// ImageSource 保存 base64 编码的图片数据。
type ImageSource struct {
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type ImageBlock struct {
	Source ImageSource
}

// ToolUseBlock 表示一次工具调用请求，Input 为任意 JSON 值。
type ToolUseBlock struct {
	ID    string
	Name  string
	Input any
}

// ToolResultBlock 是工具执行结果，Content 只包含文本或图片块。
type ToolResultBlock struct {
	ToolUseID string
	Content   []ContentBlock
	IsError   bool
}

type ThinkingBlock struct {
	Thinking  string
	Signature string
}

// UserActionBlock 记录用户在界面上直接执行的动作，成员为 ToolUseBlock。
type UserActionBlock struct {
	Content []ContentBlock
}

func (TextBlock) Type() BlockType       { return BlockText }
func (ImageBlock) Type() BlockType      { return BlockImage }
func (ToolUseBlock) Type() BlockType    { return BlockToolUse }
func (ToolResultBlock) Type() BlockType { return BlockToolResult }
func (ThinkingBlock) Type() BlockType   { return BlockThinking }
func (UserActionBlock) Type() BlockType { return BlockUserAction }

func (TextBlock) isContentBlock()       {}
func (ImageBlock) isContentBlock()      {}
func (ToolUseBlock) isContentBlock()    {}
func (ToolResultBlock) isContentBlock() {}
func (ThinkingBlock) isContentBlock()   {}
func (UserActionBlock) isContentBlock() {}

// NewText 构造文本块。
func NewText(text string) TextBlock {
	return TextBlock{Text: text}
}

// NewImage 构造 base64 图片块。
func NewImage(mediaType, data string) ImageBlock {
	return ImageBlock{Source: ImageSource{MediaType: mediaType, Data: data}}
}

// NewToolResult 构造只含一段文本的工具结果。
func NewToolResult(toolUseID, text string, isError bool) ToolResultBlock {
	res := ToolResultBlock{ToolUseID: toolUseID, IsError: isError}
	if text != "" {
		res.Content = []ContentBlock{TextBlock{Text: text}}
	}
	return res
}

// wireBlock is the flattened JSON shape shared by every block type.
type wireBlock struct {
	Type      BlockType         `json:"type"`
	Text      string            `json:"text,omitempty"`
	Source    *ImageSource      `json:"source,omitempty"`
	ID        string            `json:"id,omitempty"`
	Name      string            `json:"name,omitempty"`
	Input     json.RawMessage   `json:"input,omitempty"`
	ToolUseID string            `json:"tool_use_id,omitempty"`
	Content   []json.RawMessage `json:"content,omitempty"`
	IsError   bool              `json:"is_error,omitempty"`
	Thinking  string            `json:"thinking,omitempty"`
	Signature string            `json:"signature,omitempty"`
}

func (b TextBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type BlockType `json:"type"`
		Text string    `json:"text"`
	}{BlockText, b.Text})
}

func (b ImageBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   BlockType   `json:"type"`
		Source ImageSource `json:"source"`
	}{BlockImage, b.Source})
}

func (b ToolUseBlock) MarshalJSON() ([]byte, error) {
	input := b.Input
	if input == nil {
		input = map[string]any{}
	}
	return json.Marshal(struct {
		Type  BlockType `json:"type"`
		ID    string    `json:"id"`
		Name  string    `json:"name"`
		Input any       `json:"input"`
	}{BlockToolUse, b.ID, b.Name, input})
}

func (b ToolResultBlock) MarshalJSON() ([]byte, error) {
	content := b.Content
	if content == nil {
		content = []ContentBlock{}
	}
	return json.Marshal(struct {
		Type      BlockType      `json:"type"`
		ToolUseID string         `json:"tool_use_id"`
		Content   []ContentBlock `json:"content"`
		IsError   bool           `json:"is_error,omitempty"`
	}{BlockToolResult, b.ToolUseID, content, b.IsError})
}

func (b ThinkingBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      BlockType `json:"type"`
		Thinking  string    `json:"thinking"`
		Signature string    `json:"signature,omitempty"`
	}{BlockThinking, b.Thinking, b.Signature})
}

func (b UserActionBlock) MarshalJSON() ([]byte, error) {
	content := b.Content
	if content == nil {
		content = []ContentBlock{}
	}
	return json.Marshal(struct {
		Type    BlockType      `json:"type"`
		Content []ContentBlock `json:"content"`
	}{BlockUserAction, content})
}

// UnmarshalBlock 按 "type" 字段解码单个内容块。
func UnmarshalBlock(data []byte) (ContentBlock, error) {
	var w wireBlock
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	switch w.Type {
	case BlockText:
		return TextBlock{Text: w.Text}, nil
	case BlockImage:
		if w.Source == nil {
			return nil, fmt.Errorf("image block missing source")
		}
		return ImageBlock{Source: *w.Source}, nil
	case BlockToolUse:
		var input any
		if len(bytes.TrimSpace(w.Input)) > 0 {
			if err := json.Unmarshal(w.Input, &input); err != nil {
				return nil, fmt.Errorf("tool_use %s input: %w", w.ID, err)
			}
		}
		return ToolUseBlock{ID: w.ID, Name: w.Name, Input: input}, nil
	case BlockToolResult:
		content, err := UnmarshalBlocks(w.Content)
		if err != nil {
			return nil, fmt.Errorf("tool_result %s: %w", w.ToolUseID, err)
		}
		return ToolResultBlock{ToolUseID: w.ToolUseID, Content: content, IsError: w.IsError}, nil
	case BlockThinking:
		return ThinkingBlock{Thinking: w.Thinking, Signature: w.Signature}, nil
	case BlockUserAction:
		content, err := UnmarshalBlocks(w.Content)
		if err != nil {
			return nil, fmt.Errorf("user_action: %w", err)
		}
		return UserActionBlock{Content: content}, nil
	case "":
		return nil, fmt.Errorf("content block missing type")
	default:
		return nil, fmt.Errorf("unknown content block type %q", w.Type)
	}
}

// UnmarshalBlocks 解码有序的内容块列表。
func UnmarshalBlocks(raw []json.RawMessage) ([]ContentBlock, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]ContentBlock, 0, len(raw))
	for i, item := range raw {
		block, err := UnmarshalBlock(item)
		if err != nil {
			return nil, fmt.Errorf("content[%d]: %w", i, err)
		}
		out = append(out, block)
	}
	return out, nil
}

// MarshalIndentNoEscape 按 indent 缩进编码 v：不转义 HTML 字符，无尾随换行。
// indent 为空时输出紧凑格式。
func MarshalIndentNoEscape(v any, indent string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
