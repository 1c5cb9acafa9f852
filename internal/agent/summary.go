package agent

import (
	"fmt"
	"strings"
)

const summaryTextLimit = 200

// SummarizeBlocks 生成内容块的单行摘要，用于日志；不会输出图片数据。
func SummarizeBlocks(blocks []ContentBlock) string {
	parts := make([]string, 0, len(blocks))
	for _, block := range blocks {
		parts = append(parts, summarizeBlock(block))
	}
	return strings.Join(parts, " | ")
}

func summarizeBlock(block ContentBlock) string {
	switch b := block.(type) {
	case TextBlock:
		return "text: " + truncate(b.Text, summaryTextLimit)
	case ImageBlock:
		return fmt.Sprintf("image: %s (%d bytes b64)", b.Source.MediaType, len(b.Source.Data))
	case ToolUseBlock:
		args, _ := MarshalIndentNoEscape(b.Input, "")
		return fmt.Sprintf("tool_use: %s id=%s input=%s", b.Name, b.ID, truncate(args, summaryTextLimit))
	case ToolResultBlock:
		status := "ok"
		if b.IsError {
			status = "error"
		}
		return fmt.Sprintf("tool_result: id=%s %s [%s]", b.ToolUseID, status, SummarizeBlocks(b.Content))
	case ThinkingBlock:
		return "thinking: " + truncate(b.Thinking, summaryTextLimit)
	case UserActionBlock:
		return fmt.Sprintf("user_action: [%s]", SummarizeBlocks(b.Content))
	default:
		return fmt.Sprintf("unknown: %T", block)
	}
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}
