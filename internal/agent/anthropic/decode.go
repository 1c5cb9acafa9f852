package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"toolbridge/internal/agent"
	"toolbridge/internal/logger"

	anthropic "github.com/anthropics/anthropic-sdk-go"
)

func decodeMessage(model string, msg *anthropic.Message) ([]agent.ContentBlock, agent.TokenUsage) {
	blocks := []agent.ContentBlock{}
	if msg == nil {
		return blocks, agent.TokenUsage{}
	}
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			if v.Text != "" {
				blocks = append(blocks, agent.TextBlock{Text: v.Text})
			}
		case anthropic.ThinkingBlock:
			blocks = append(blocks, agent.ThinkingBlock{Thinking: v.Thinking, Signature: v.Signature})
		case anthropic.ToolUseBlock:
			blocks = append(blocks, agent.ToolUseBlock{
				ID:    v.ID,
				Name:  v.Name,
				Input: parseInput(model, v.Input),
			})
		}
	}
	usage := agent.TokenUsage{
		InputTokens:  msg.Usage.InputTokens,
		OutputTokens: msg.Usage.OutputTokens,
		TotalTokens:  msg.Usage.InputTokens + msg.Usage.OutputTokens,
	}
	return blocks, usage
}

func parseInput(model string, raw json.RawMessage) any {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return map[string]any{}
	}
	var input any
	if err := json.Unmarshal(raw, &input); err != nil {
		logger.GlobalLLMLogger().Warn(ProviderName, model, fmt.Sprintf("failed to parse tool input: %s", raw))
		return map[string]any{"raw_arguments": string(raw)}
	}
	return input
}
