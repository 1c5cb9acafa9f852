package openrouter

import (
	"encoding/json"
	"fmt"

	"toolbridge/internal/agent"
	"toolbridge/internal/logger"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
)

// DecodeCompletion 将 chat completion 响应还原为内容块与 token 用量。
// 只读取第一个 choice；无法解析的工具参数保留在 raw_arguments 中，不会使调用失败。
func DecodeCompletion(resp *openai.ChatCompletion) ([]agent.ContentBlock, agent.TokenUsage) {
	if resp == nil {
		return []agent.ContentBlock{}, agent.TokenUsage{}
	}
	usage := agent.TokenUsage{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}
	blocks := []agent.ContentBlock{}
	if len(resp.Choices) == 0 {
		return blocks, usage
	}

	msg := resp.Choices[0].Message
	if msg.Content != "" {
		blocks = append(blocks, agent.TextBlock{Text: msg.Content})
	}
	for _, call := range msg.ToolCalls {
		if call.Type != "" && call.Type != "function" {
			continue
		}
		id := call.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		blocks = append(blocks, agent.ToolUseBlock{
			ID:    id,
			Name:  call.Function.Name,
			Input: parseArguments(resp.Model, call.Function.Arguments),
		})
	}
	return blocks, usage
}

func parseArguments(model, raw string) any {
	var input any
	if err := json.Unmarshal([]byte(raw), &input); err != nil {
		logger.GlobalLLMLogger().Warn(ProviderName, model, fmt.Sprintf("failed to parse tool arguments: %s", raw))
		return map[string]any{"raw_arguments": raw}
	}
	return input
}
