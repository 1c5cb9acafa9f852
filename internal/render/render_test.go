package render

import (
	"strings"
	"testing"

	"toolbridge/internal/agent"
)

func TestWrapText(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{"fits", "hello world", 20, []string{"hello world"}},
		{"words", "hello big world", 9, []string{"hello big", "world"}},
		{"long word", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"long word tail shares line", "abcdef g", 4, []string{"abcd", "ef g"}},
		{"word before long word", "ab cdefghij", 4, []string{"ab", "cdef", "ghij"}},
		{"wide runes", "你好世界", 4, []string{"你好", "世界"}},
		{"blank lines kept", "a\n\nb", 10, []string{"a", "", "b"}},
		{"no width", "anything goes", 0, []string{"anything goes"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := wrapText(tc.text, tc.width)
			if strings.Join(got, "|") != strings.Join(tc.want, "|") {
				t.Fatalf("wrapText(%q, %d) = %q, want %q", tc.text, tc.width, got, tc.want)
			}
		})
	}
}

func TestWrapAndTruncate(t *testing.T) {
	got := wrapAndTruncate("1\n2\n3\n4\n", 10, 2)
	want := []string{"1", "2", "… +2 lines"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("wrapAndTruncate = %q, want %q", got, want)
	}
	if wrapAndTruncate("\n", 10, 2) != nil {
		t.Fatalf("empty text should produce no lines")
	}
}

func TestTable(t *testing.T) {
	out := Table([]string{"NAME", "TITLE"}, [][]string{
		{"openai/gpt-4o", "GPT-4o"},
		{"x", "a very long title"},
	}, 14)
	want := "NAME" + strings.Repeat(" ", 11) + "TITLE\n" +
		"openai/gpt-4o  GPT-4o\n" +
		"x" + strings.Repeat(" ", 14) + "a very long t…\n"
	if out != want {
		t.Fatalf("Table() =\n%s\nwant\n%s", out, want)
	}
}

func TestRendererMessagePlain(t *testing.T) {
	r := NewRenderer(40, true)

	user := r.Message(agent.Message{Role: agent.RoleUser, Content: []agent.ContentBlock{
		agent.NewText("find my issues"),
		agent.NewImage("image/png", "AAAA"),
	}})
	if user != "› find my issues\n[image image/png]\n" {
		t.Fatalf("user = %q", user)
	}

	assistant := r.Message(agent.Message{Role: agent.RoleAssistant, Content: []agent.ContentBlock{
		agent.ThinkingBlock{Thinking: "plan"},
		agent.NewText("Searching."),
		agent.ToolUseBlock{ID: "c1", Name: "search_jira_issues", Input: map[string]any{"jql": "a"}},
		agent.NewToolResult("c1", "one\ntwo", false),
		agent.NewToolResult("c2", "boom", true),
	}})
	want := "thinking: plan\n" +
		"Searching.\n" +
		"• search_jira_issues {\"jql\":\"a\"}\n" +
		"✓ completed\n" +
		"  └ one\n" +
		"  └ two\n" +
		"✗ failed\n" +
		"  └ boom\n"
	if assistant != want {
		t.Fatalf("assistant =\n%q\nwant\n%q", assistant, want)
	}
}

func TestRendererTranscriptSkipsEmptyMessages(t *testing.T) {
	r := NewRenderer(0, true)
	out := r.Transcript([]agent.Message{
		agent.NewUserText("hi"),
		{Role: agent.RoleAssistant},
		{Role: agent.RoleAssistant, Content: []agent.ContentBlock{agent.NewText("hello")}},
	})
	if out != "› hi\n\nhello\n" {
		t.Fatalf("transcript = %q", out)
	}
	if r.Width != 80 {
		t.Fatalf("default width = %d", r.Width)
	}
}

func TestRendererUsage(t *testing.T) {
	r := NewRenderer(80, true)
	got := r.Usage(agent.TokenUsage{InputTokens: 3, OutputTokens: 4, TotalTokens: 7}, 2, 1)
	if got != "turns=2 tool_calls=1 tokens in=3 out=4 total=7" {
		t.Fatalf("usage = %q", got)
	}
}
