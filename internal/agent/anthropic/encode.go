package anthropic

import (
	"fmt"
	"strings"

	"toolbridge/internal/agent"

	anthropic "github.com/anthropics/anthropic-sdk-go"
)

const emptyToolResult = "Tool executed successfully"

// buildMessageParams 将内部对话转换为 Messages API 请求。
// 助手消息中的 tool_result 会被移到紧随其后的 user 轮次，相邻的同角色轮次会被合并。
func buildMessageParams(req agent.Request, model anthropic.Model) anthropic.MessageNewParams {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = agent.DefaultMaxTokens
	}

	var messages []anthropic.MessageParam
	for _, msg := range req.Messages {
		switch msg.Role {
		case agent.RoleUser:
			messages = appendTurn(messages, anthropic.MessageParamRoleUser, encodeUser(msg))
		case agent.RoleAssistant:
			content, results := encodeAssistant(msg)
			messages = appendTurn(messages, anthropic.MessageParamRoleAssistant, content)
			messages = appendTurn(messages, anthropic.MessageParamRoleUser, results)
		}
	}

	params := anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: maxTokens,
		Messages:  messages,
	}
	if system := strings.TrimSpace(req.SystemPrompt); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if req.UseTools && len(req.Tools) > 0 {
		params.Tools = toTools(req.Tools)
		params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}
	}
	return params
}

func appendTurn(messages []anthropic.MessageParam, role anthropic.MessageParamRole, blocks []anthropic.ContentBlockParamUnion) []anthropic.MessageParam {
	if len(blocks) == 0 {
		return messages
	}
	if n := len(messages); n > 0 && messages[n-1].Role == role {
		messages[n-1].Content = append(messages[n-1].Content, blocks...)
		return messages
	}
	return append(messages, anthropic.MessageParam{Role: role, Content: blocks})
}

func encodeUser(msg agent.Message) []anthropic.ContentBlockParamUnion {
	if msg.IsUserActionOnly() {
		lines := collapseUserActions(msg.Content)
		if len(lines) == 0 {
			return nil
		}
		return []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(strings.Join(lines, "\n\n"))}
	}
	var blocks []anthropic.ContentBlockParamUnion
	for _, block := range msg.Content {
		switch b := block.(type) {
		case agent.TextBlock:
			blocks = append(blocks, anthropic.NewTextBlock(b.Text))
		case agent.ImageBlock:
			blocks = append(blocks, anthropic.NewImageBlockBase64(b.Source.MediaType, b.Source.Data))
		}
	}
	return blocks
}

func collapseUserActions(blocks []agent.ContentBlock) []string {
	var lines []string
	for _, block := range blocks {
		action, ok := block.(agent.UserActionBlock)
		if !ok {
			continue
		}
		for _, sub := range action.Content {
			use, ok := sub.(agent.ToolUseBlock)
			if !ok {
				continue
			}
			input := use.Input
			if input == nil {
				input = map[string]any{}
			}
			args, err := agent.MarshalIndentNoEscape(input, "  ")
			if err != nil {
				args = fmt.Sprintf("%v", input)
			}
			lines = append(lines, fmt.Sprintf("User performed action: %s\n%s", use.Name, args))
		}
	}
	return lines
}

// encodeAssistant 返回助手轮次的内容块，以及需要放入下一个 user 轮次的 tool_result 块。
func encodeAssistant(msg agent.Message) (content, results []anthropic.ContentBlockParamUnion) {
	for _, block := range msg.Content {
		switch b := block.(type) {
		case agent.TextBlock:
			if b.Text != "" {
				content = append(content, anthropic.NewTextBlock(b.Text))
			}
		case agent.ThinkingBlock:
			if b.Signature != "" {
				content = append(content, anthropic.NewThinkingBlock(b.Signature, b.Thinking))
			} else {
				content = append(content, anthropic.NewTextBlock(fmt.Sprintf("[Thinking: %s]", b.Thinking)))
			}
		case agent.ToolUseBlock:
			input := b.Input
			if input == nil {
				input = map[string]any{}
			}
			content = append(content, anthropic.NewToolUseBlock(b.ID, input, b.Name))
		case agent.ToolResultBlock:
			results = append(results, encodeToolResult(b))
		}
	}
	return content, results
}

func encodeToolResult(res agent.ToolResultBlock) anthropic.ContentBlockParamUnion {
	param := anthropic.ToolResultBlockParam{ToolUseID: res.ToolUseID}
	for _, item := range res.Content {
		switch b := item.(type) {
		case agent.TextBlock:
			if strings.TrimSpace(b.Text) == "" {
				continue
			}
			param.Content = append(param.Content, anthropic.ToolResultBlockParamContentUnion{
				OfText: &anthropic.TextBlockParam{Text: b.Text},
			})
		case agent.ImageBlock:
			img := anthropic.NewImageBlockBase64(b.Source.MediaType, b.Source.Data)
			param.Content = append(param.Content, anthropic.ToolResultBlockParamContentUnion{OfImage: img.OfImage})
		}
	}
	if len(param.Content) == 0 {
		param.Content = []anthropic.ToolResultBlockParamContentUnion{{
			OfText: &anthropic.TextBlockParam{Text: emptyToolResult},
		}}
	}
	if res.IsError {
		param.IsError = anthropic.Bool(true)
	}
	return anthropic.ContentBlockParamUnion{OfToolResult: &param}
}

func toTools(specs []agent.ToolSpec) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			continue
		}
		tool := anthropic.ToolParam{
			Name: name,
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: spec.Parameters["properties"],
				Required:   requiredFields(spec.Parameters["required"]),
			},
		}
		if desc := strings.TrimSpace(spec.Description); desc != "" {
			tool.Description = anthropic.String(desc)
		}
		tools = append(tools, anthropic.ToolUnionParam{OfTool: &tool})
	}
	return tools
}

func requiredFields(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
