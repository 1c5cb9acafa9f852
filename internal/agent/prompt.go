package agent

// ToolSpec 描述可供模型调用的工具定义，遵循 function 工具的通用 schema 约定。
// Parameters 原样透传给模型服务，本层不生成也不校验。
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// DefaultMaxTokens 是每次生成请求的输出 token 上限。
const DefaultMaxTokens = 8192

// Request 代表一次模型调用的完整输入。
type Request struct {
	SystemPrompt string
	Messages     []Message
	Model        string
	UseTools     bool
	Tools        []ToolSpec
	MaxTokens    int64
}

// TokenUsage 统计一次或多次调用的 token 消耗，服务端未返回时为 0。
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// Add 累加另一轮调用的用量。
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
		TotalTokens:  u.TotalTokens + other.TotalTokens,
	}
}

// Response 是一次生成调用的结果。
type Response struct {
	Content []ContentBlock
	Usage   TokenUsage
}
