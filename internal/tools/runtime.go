package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"toolbridge/internal/agent"
)

// Execute 执行一次工具调用并总是返回结果块：未知工具、参数错误、
// handler 失败或 panic 都会变成 IsError 的结果，而不会中断对话。
func (r *Registry) Execute(ctx context.Context, call agent.ToolUseBlock) (res agent.ToolResultBlock) {
	start := time.Now()
	payload := encodeInput(call.Input)
	handler, ok := r.Handler(call.Name)
	logToolRequest(call, payload, ok)

	defer func() {
		if p := recover(); p != nil {
			res = agent.NewToolResult(call.ID, fmt.Sprintf("tool %s panicked: %v", call.Name, p), true)
		}
		logToolResult(call, payload, res, time.Since(start))
	}()

	if !ok {
		return agent.NewToolResult(call.ID, fmt.Sprintf("unknown tool: %s", call.Name), true)
	}
	if err := ctx.Err(); err != nil {
		return agent.NewToolResult(call.ID, fmt.Sprintf("tool %s not run: %v", call.Name, err), true)
	}

	out, err := handler.Handle(ctx, payload)
	if err != nil {
		return agent.NewToolResult(call.ID, err.Error(), true)
	}
	return agent.NewToolResult(call.ID, out, false)
}

func encodeInput(input any) json.RawMessage {
	if input == nil {
		return json.RawMessage("{}")
	}
	if raw, ok := input.(json.RawMessage); ok && len(raw) > 0 {
		return raw
	}
	raw, err := json.Marshal(input)
	if err != nil {
		return json.RawMessage("{}")
	}
	return raw
}

func logToolRequest(call agent.ToolUseBlock, payload []byte, recognized bool) {
	status := "received"
	if !recognized {
		status = "unknown"
	}
	sink.log().Infof("tool_call id=%s name=%s status=%s payload=%s",
		call.ID, call.Name, status, sanitizeForLog(payload))
}

func logToolResult(call agent.ToolUseBlock, payload []byte, result agent.ToolResultBlock, duration time.Duration) {
	status := "completed"
	errText := "(empty)"
	if result.IsError {
		status = "error"
		errText = sanitizeForLog([]byte(agent.Message{Content: result.Content}.Text()))
	}
	sink.log().Infof("tool_result id=%s name=%s status=%s duration_ms=%d error=%s payload=%s",
		call.ID, call.Name, status, duration.Milliseconds(), errText, sanitizeForLog(payload))
}

func sanitizeForLog(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "(empty)"
	}
	text = strings.ReplaceAll(text, "\n", `\n`)
	text = strings.ReplaceAll(text, "\r", `\r`)
	return text
}
