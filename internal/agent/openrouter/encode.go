package openrouter

import (
	"fmt"
	"strings"

	"toolbridge/internal/agent"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"
)

// emptyToolResult 替代没有任何文本内容的工具结果，保证 tool 消息始终有正文。
const emptyToolResult = "Tool executed successfully"

// BuildParams 构造完整的 chat completion 请求体：system 消息在最前，随后是编码后的对话。
// 仅当 UseTools 为 true 时附带 tools 与 tool_choice=auto。
func BuildParams(req agent.Request, model string) openai.ChatCompletionNewParams {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = agent.DefaultMaxTokens
	}
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	messages = append(messages, EncodeMessages(req.Messages)...)

	params := openai.ChatCompletionNewParams{
		Model:     shared.ChatModel(model),
		MaxTokens: openai.Int(maxTokens),
		Messages:  messages,
	}
	if req.UseTools {
		params.Tools = toChatTools(req.Tools)
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String(string(openai.ChatCompletionToolChoiceOptionAutoAuto)),
		}
	}
	return params
}

// EncodeMessages 将内部消息按顺序转换为 chat completion 消息，不含 system 消息。
func EncodeMessages(msgs []agent.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case agent.RoleUser:
			if wire, ok := encodeUser(msg); ok {
				out = append(out, wire)
			}
		case agent.RoleAssistant:
			out = append(out, encodeAssistant(msg)...)
		}
	}
	return out
}

func encodeUser(msg agent.Message) (openai.ChatCompletionMessageParamUnion, bool) {
	if msg.IsUserActionOnly() {
		lines := collapseUserActions(msg.Content)
		if len(lines) == 0 {
			return openai.ChatCompletionMessageParamUnion{}, false
		}
		return openai.UserMessage(strings.Join(lines, "\n\n")), true
	}

	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(msg.Content))
	dropped := 0
	for _, block := range msg.Content {
		switch b := block.(type) {
		case agent.TextBlock:
			parts = append(parts, openai.TextContentPart(b.Text))
		case agent.ImageBlock:
			parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: dataURL(b.Source),
			}))
		case agent.UserActionBlock:
			dropped++
		}
	}
	if dropped > 0 {
		log.Warnf("user message mixes %d user_action block(s) with other content; actions dropped", dropped)
	}
	if len(parts) == 0 {
		return openai.ChatCompletionMessageParamUnion{}, false
	}
	return openai.UserMessage(parts), true
}

// collapseUserActions 把用户动作中的工具调用折叠为文本描述。
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
			lines = append(lines, fmt.Sprintf("User performed action: %s\n%s", use.Name, indentedInput(use.Input)))
		}
	}
	return lines
}

func encodeAssistant(msg agent.Message) []openai.ChatCompletionMessageParamUnion {
	var fragments []string
	var calls []openai.ChatCompletionMessageToolCallUnionParam
	for _, block := range msg.Content {
		switch b := block.(type) {
		case agent.TextBlock:
			fragments = append(fragments, b.Text)
		case agent.ThinkingBlock:
			fragments = append(fragments, fmt.Sprintf("[Thinking: %s]", b.Thinking))
		case agent.ToolUseBlock:
			calls = append(calls, openai.ChatCompletionMessageToolCallUnionParam{
				OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
					ID: b.ID,
					Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
						Name:      b.Name,
						Arguments: compactInput(b.Input),
					},
				},
			})
		}
	}

	assistant := &openai.ChatCompletionAssistantMessageParam{ToolCalls: calls}
	if text := strings.Join(fragments, "\n"); text != "" {
		assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{OfString: openai.String(text)}
	}
	out := []openai.ChatCompletionMessageParamUnion{{OfAssistant: assistant}}

	for _, block := range msg.Content {
		res, ok := block.(agent.ToolResultBlock)
		if !ok {
			continue
		}
		out = append(out, openai.ToolMessage(toolResultBody(res), res.ToolUseID))
	}
	return out
}

func toolResultBody(res agent.ToolResultBlock) string {
	var sb strings.Builder
	for _, item := range res.Content {
		switch b := item.(type) {
		case agent.TextBlock:
			sb.WriteString(b.Text)
			sb.WriteString("\n")
		case agent.ImageBlock:
			fmt.Fprintf(&sb, "[Image: %s]\n", b.Source.MediaType)
		}
	}
	body := strings.TrimSpace(sb.String())
	if body == "" {
		return emptyToolResult
	}
	return body
}

func toChatTools(specs []agent.ToolSpec) []openai.ChatCompletionToolUnionParam {
	tools := make([]openai.ChatCompletionToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			continue
		}
		fn := shared.FunctionDefinitionParam{
			Name:       name,
			Parameters: shared.FunctionParameters(spec.Parameters),
		}
		if desc := strings.TrimSpace(spec.Description); desc != "" {
			fn.Description = openai.String(desc)
		}
		tools = append(tools, openai.ChatCompletionFunctionTool(fn))
	}
	return tools
}

func dataURL(src agent.ImageSource) string {
	return fmt.Sprintf("data:%s;base64,%s", src.MediaType, src.Data)
}

func indentedInput(input any) string {
	if input == nil {
		input = map[string]any{}
	}
	out, err := agent.MarshalIndentNoEscape(input, "  ")
	if err != nil {
		return fmt.Sprintf("%v", input)
	}
	return out
}

func compactInput(input any) string {
	if input == nil {
		return "{}"
	}
	out, err := agent.MarshalIndentNoEscape(input, "")
	if err != nil {
		return "{}"
	}
	return out
}
