// Package render 把对话消息渲染成终端文本。
package render

import (
	"fmt"
	"strings"

	"toolbridge/internal/agent"

	"github.com/charmbracelet/lipgloss"
)

const maxToolOutputLines = 12

// Renderer 负责单条消息的终端展示。Plain 为 true 时不输出任何样式。
type Renderer struct {
	Width int
	Plain bool

	user  lipgloss.Style
	dim   lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	tool  lipgloss.Style
	think lipgloss.Style
}

func NewRenderer(width int, plain bool) *Renderer {
	if width <= 0 {
		width = 80
	}
	return &Renderer{
		Width: width,
		Plain: plain,
		user:  lipgloss.NewStyle().Bold(true),
		dim:   lipgloss.NewStyle().Faint(true),
		ok:    lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Bold(true),
		err:   lipgloss.NewStyle().Foreground(lipgloss.Color("#CC0000")).Bold(true),
		tool:  lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true),
		think: lipgloss.NewStyle().Faint(true).Italic(true),
	}
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if r.Plain {
		return text
	}
	return s.Render(text)
}

// Message 渲染一条消息，结果以换行结尾；空消息返回空串。
func (r *Renderer) Message(msg agent.Message) string {
	var lines []string
	for _, block := range msg.Content {
		lines = append(lines, r.block(msg.Role, block)...)
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// Transcript 依次渲染多条消息，消息之间空一行。
func (r *Renderer) Transcript(msgs []agent.Message) string {
	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		if out := r.Message(msg); out != "" {
			parts = append(parts, out)
		}
	}
	return strings.Join(parts, "\n")
}

func (r *Renderer) block(role agent.Role, block agent.ContentBlock) []string {
	switch b := block.(type) {
	case agent.TextBlock:
		if strings.TrimSpace(b.Text) == "" {
			return nil
		}
		if role == agent.RoleUser {
			return r.prefixed("› ", b.Text, r.user)
		}
		return wrapText(b.Text, r.Width)
	case agent.ImageBlock:
		return []string{r.style(r.dim, fmt.Sprintf("[image %s]", b.Source.MediaType))}
	case agent.ThinkingBlock:
		return r.prefixed("thinking: ", b.Thinking, r.think)
	case agent.ToolUseBlock:
		args, _ := agent.MarshalIndentNoEscape(b.Input, "")
		if b.Input == nil {
			args = "{}"
		}
		head := r.style(r.tool, "• "+b.Name) + " " + r.style(r.dim, args)
		return []string{head}
	case agent.ToolResultBlock:
		return r.toolResult(b)
	case agent.UserActionBlock:
		var out []string
		for _, inner := range b.Content {
			if tu, ok := inner.(agent.ToolUseBlock); ok {
				out = append(out, r.style(r.dim, "user action: "+tu.Name))
			}
		}
		return out
	default:
		return nil
	}
}

func (r *Renderer) toolResult(b agent.ToolResultBlock) []string {
	icon, iconStyle, status := "✓", r.ok, "completed"
	if b.IsError {
		icon, iconStyle, status = "✗", r.err, "failed"
	}
	out := []string{r.style(iconStyle, icon) + " " + r.style(r.dim, status)}

	var body strings.Builder
	for _, inner := range b.Content {
		switch c := inner.(type) {
		case agent.TextBlock:
			body.WriteString(c.Text)
			body.WriteString("\n")
		case agent.ImageBlock:
			body.WriteString(fmt.Sprintf("[image %s]\n", c.Source.MediaType))
		}
	}
	for _, line := range wrapAndTruncate(body.String(), r.Width-4, maxToolOutputLines) {
		out = append(out, r.style(r.dim, "  └ "+line))
	}
	return out
}

func (r *Renderer) prefixed(prefix, text string, s lipgloss.Style) []string {
	lines := wrapText(text, r.Width-len([]rune(prefix)))
	out := make([]string, 0, len(lines))
	pad := strings.Repeat(" ", len([]rune(prefix)))
	for i, line := range lines {
		lead := pad
		if i == 0 {
			lead = prefix
		}
		out = append(out, r.style(s, lead+line))
	}
	return out
}

// Usage 输出一行用量摘要。
func (r *Renderer) Usage(u agent.TokenUsage, turns, toolCalls int) string {
	return r.style(r.dim, fmt.Sprintf("turns=%d tool_calls=%d tokens in=%d out=%d total=%d",
		turns, toolCalls, u.InputTokens, u.OutputTokens, u.TotalTokens))
}
