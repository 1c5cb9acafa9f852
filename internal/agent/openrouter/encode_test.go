package openrouter

import (
	"bytes"
	"encoding/json"
	"testing"

	"toolbridge/internal/agent"

	"github.com/openai/openai-go/v3"
)

func wireMessages(t *testing.T, msgs []openai.ChatCompletionMessageParamUnion) []map[string]any {
	t.Helper()
	data, err := json.Marshal(msgs)
	if err != nil {
		t.Fatalf("marshal messages: %v", err)
	}
	var out []map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal messages: %v\n%s", err, data)
	}
	return out
}

func roles(msgs []map[string]any) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		role, _ := m["role"].(string)
		out = append(out, role)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestEncodeMessages_ToolResultsFollowToolCalls(t *testing.T) {
	silenceLogs(t)

	history := []agent.Message{
		agent.NewUserText("find bugs"),
		{Role: agent.RoleAssistant, Content: []agent.ContentBlock{
			agent.TextBlock{Text: "searching"},
			agent.ToolUseBlock{ID: "t1", Name: "search_jira_issues", Input: map[string]any{"jql": "type = Bug"}},
			agent.ToolUseBlock{ID: "t2", Name: "search_confluence_pages", Input: map[string]any{"query": "bugs"}},
			agent.NewToolResult("t1", "3 issues", false),
			agent.NewToolResult("t2", "no pages", false),
		}},
		agent.NewUserText("thanks"),
	}

	got := wireMessages(t, EncodeMessages(history))
	wantRoles := []string{"user", "assistant", "tool", "tool", "user"}
	if !equalStrings(roles(got), wantRoles) {
		t.Fatalf("roles = %v, want %v", roles(got), wantRoles)
	}

	calls, _ := got[1]["tool_calls"].([]any)
	if len(calls) != 2 {
		t.Fatalf("tool_calls = %v, want 2 entries", got[1]["tool_calls"])
	}
	first := calls[0].(map[string]any)
	if first["id"] != "t1" || first["type"] != "function" {
		t.Fatalf("first tool call = %v", first)
	}
	fn := first["function"].(map[string]any)
	if fn["name"] != "search_jira_issues" || fn["arguments"] != `{"jql":"type = Bug"}` {
		t.Fatalf("first function = %v", fn)
	}
	if got[1]["content"] != "searching" {
		t.Fatalf("assistant content = %v", got[1]["content"])
	}
	if got[2]["tool_call_id"] != "t1" || got[2]["content"] != "3 issues" {
		t.Fatalf("first tool message = %v", got[2])
	}
	if got[3]["tool_call_id"] != "t2" || got[3]["content"] != "no pages" {
		t.Fatalf("second tool message = %v", got[3])
	}
}

func TestEncodeMessages_EmptyToolResultUsesSentinel(t *testing.T) {
	silenceLogs(t)

	cases := []struct {
		name   string
		result agent.ToolResultBlock
		want   string
	}{
		{name: "no content", result: agent.ToolResultBlock{ToolUseID: "t1"}, want: "Tool executed successfully"},
		{name: "whitespace", result: agent.NewToolResult("t1", "  \n ", false), want: "Tool executed successfully"},
		{
			name: "text and image",
			result: agent.ToolResultBlock{ToolUseID: "t1", Content: []agent.ContentBlock{
				agent.TextBlock{Text: "shot taken"},
				agent.NewImage("image/png", "AAAA"),
			}},
			want: "shot taken\n[Image: image/png]",
		},
		{
			name: "image only",
			result: agent.ToolResultBlock{ToolUseID: "t1", Content: []agent.ContentBlock{
				agent.NewImage("image/jpeg", "AAAA"),
			}},
			want: "[Image: image/jpeg]",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msgs := []agent.Message{{Role: agent.RoleAssistant, Content: []agent.ContentBlock{
				agent.ToolUseBlock{ID: "t1", Name: "noop"},
				tc.result,
			}}}
			got := wireMessages(t, EncodeMessages(msgs))
			if len(got) != 2 {
				t.Fatalf("messages = %d, want 2", len(got))
			}
			if got[1]["content"] != tc.want {
				t.Fatalf("tool content = %q, want %q", got[1]["content"], tc.want)
			}
		})
	}
}

func TestEncodeMessages_CollapsesUserActions(t *testing.T) {
	silenceLogs(t)

	msgs := []agent.Message{{Role: agent.RoleUser, Content: []agent.ContentBlock{
		agent.UserActionBlock{Content: []agent.ContentBlock{
			agent.ToolUseBlock{ID: "a1", Name: "click", Input: map[string]any{"x": 10, "y": 20}},
		}},
	}}}

	got := wireMessages(t, EncodeMessages(msgs))
	if len(got) != 1 {
		t.Fatalf("messages = %d, want 1", len(got))
	}
	want := "User performed action: click\n{\n  \"x\": 10,\n  \"y\": 20\n}"
	if got[0]["role"] != "user" || got[0]["content"] != want {
		t.Fatalf("collapsed message = %#v, want content %q", got[0], want)
	}
}

func TestEncodeMessages_MultipleUserActionsJoined(t *testing.T) {
	silenceLogs(t)

	msgs := []agent.Message{{Role: agent.RoleUser, Content: []agent.ContentBlock{
		agent.UserActionBlock{Content: []agent.ContentBlock{
			agent.ToolUseBlock{ID: "a1", Name: "type_text", Input: map[string]any{"text": "<b>"}},
			agent.TextBlock{Text: "ignored"},
		}},
		agent.UserActionBlock{Content: []agent.ContentBlock{
			agent.ToolUseBlock{ID: "a2", Name: "scroll"},
		}},
	}}}

	got := wireMessages(t, EncodeMessages(msgs))
	want := "User performed action: type_text\n{\n  \"text\": \"<b>\"\n}\n\nUser performed action: scroll\n{}"
	if len(got) != 1 || got[0]["content"] != want {
		t.Fatalf("collapsed = %#v, want %q", got, want)
	}
}

func TestEncodeMessages_UserActionsWithoutToolUseEmitNothing(t *testing.T) {
	silenceLogs(t)

	msgs := []agent.Message{
		{Role: agent.RoleUser, Content: []agent.ContentBlock{agent.UserActionBlock{}}},
		{Role: agent.RoleUser},
		{Role: agent.RoleUser, Content: []agent.ContentBlock{agent.ThinkingBlock{Thinking: "x"}}},
	}
	if got := EncodeMessages(msgs); len(got) != 0 {
		t.Fatalf("expected no messages, got %d", len(got))
	}
}

func TestEncodeMessages_MixedUserActionFallsBackToContent(t *testing.T) {
	silenceLogs(t)

	msgs := []agent.Message{{Role: agent.RoleUser, Content: []agent.ContentBlock{
		agent.TextBlock{Text: "look"},
		agent.UserActionBlock{Content: []agent.ContentBlock{agent.ToolUseBlock{ID: "a1", Name: "click"}}},
	}}}
	got := wireMessages(t, EncodeMessages(msgs))
	if len(got) != 1 {
		t.Fatalf("messages = %d, want 1", len(got))
	}
	parts, _ := got[0]["content"].([]any)
	if len(parts) != 1 {
		t.Fatalf("parts = %v, want only the text part", got[0]["content"])
	}
}

func TestEncodeMessages_TextAndImageParts(t *testing.T) {
	silenceLogs(t)

	msgs := []agent.Message{{Role: agent.RoleUser, Content: []agent.ContentBlock{
		agent.TextBlock{Text: "what is this"},
		agent.NewImage("image/png", "iVBORw0KGgo="),
	}}}
	got := wireMessages(t, EncodeMessages(msgs))
	parts, _ := got[0]["content"].([]any)
	if len(parts) != 2 {
		t.Fatalf("parts = %v, want 2", got[0]["content"])
	}
	text := parts[0].(map[string]any)
	if text["type"] != "text" || text["text"] != "what is this" {
		t.Fatalf("text part = %v", text)
	}
	img := parts[1].(map[string]any)
	if img["type"] != "image_url" {
		t.Fatalf("image part type = %v", img["type"])
	}
	url := img["image_url"].(map[string]any)["url"]
	if url != "data:image/png;base64,iVBORw0KGgo=" {
		t.Fatalf("image url = %v", url)
	}
}

func TestEncodeMessages_AssistantFragments(t *testing.T) {
	silenceLogs(t)

	cases := []struct {
		name        string
		content     []agent.ContentBlock
		wantContent any
		wantCalls   int
	}{
		{
			name: "thinking and text",
			content: []agent.ContentBlock{
				agent.ThinkingBlock{Thinking: "plan"},
				agent.TextBlock{Text: "done"},
			},
			wantContent: "[Thinking: plan]\ndone",
		},
		{
			name:        "tool call only",
			content:     []agent.ContentBlock{agent.ToolUseBlock{ID: "c1", Name: "x", Input: nil}},
			wantContent: nil,
			wantCalls:   1,
		},
		{
			name:        "empty message still emitted",
			content:     nil,
			wantContent: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := wireMessages(t, EncodeMessages([]agent.Message{{Role: agent.RoleAssistant, Content: tc.content}}))
			if len(got) != 1 || got[0]["role"] != "assistant" {
				t.Fatalf("got %v, want one assistant message", got)
			}
			if got[0]["content"] != tc.wantContent {
				t.Fatalf("content = %#v, want %#v", got[0]["content"], tc.wantContent)
			}
			calls, _ := got[0]["tool_calls"].([]any)
			if len(calls) != tc.wantCalls {
				t.Fatalf("tool_calls = %d, want %d", len(calls), tc.wantCalls)
			}
			if tc.wantCalls > 0 {
				args := calls[0].(map[string]any)["function"].(map[string]any)["arguments"]
				if args != "{}" {
					t.Fatalf("nil input arguments = %v, want {}", args)
				}
			}
		})
	}
}

func TestBuildParams_SystemFirstAndTools(t *testing.T) {
	silenceLogs(t)

	tools := []agent.ToolSpec{{
		Name:        "search_jira_issues",
		Description: "Search Jira",
		Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
	}}
	req := agent.Request{
		SystemPrompt: "be brief",
		Messages:     []agent.Message{agent.NewUserText("hi")},
		UseTools:     true,
		Tools:        tools,
	}

	data, err := json.Marshal(BuildParams(req, "openai/gpt-4o"))
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("unmarshal params: %v", err)
	}
	if body["model"] != "openai/gpt-4o" {
		t.Fatalf("model = %v", body["model"])
	}
	if body["max_tokens"] != float64(8192) {
		t.Fatalf("max_tokens = %v, want 8192", body["max_tokens"])
	}
	msgs := body["messages"].([]any)
	sys := msgs[0].(map[string]any)
	if sys["role"] != "system" || sys["content"] != "be brief" {
		t.Fatalf("system message = %v", sys)
	}
	if body["tool_choice"] != "auto" {
		t.Fatalf("tool_choice = %v, want auto", body["tool_choice"])
	}
	wireTools := body["tools"].([]any)
	fn := wireTools[0].(map[string]any)["function"].(map[string]any)
	if fn["name"] != "search_jira_issues" || fn["description"] != "Search Jira" {
		t.Fatalf("tool function = %v", fn)
	}

	req.UseTools = false
	data, _ = json.Marshal(BuildParams(req, "openai/gpt-4o"))
	body = map[string]any{}
	_ = json.Unmarshal(data, &body)
	if _, ok := body["tools"]; ok {
		t.Fatalf("tools should be absent when UseTools=false: %s", data)
	}
	if _, ok := body["tool_choice"]; ok {
		t.Fatalf("tool_choice should be absent when UseTools=false: %s", data)
	}
}

func TestBuildParams_Idempotent(t *testing.T) {
	silenceLogs(t)

	req := agent.Request{
		SystemPrompt: "sys",
		Messages: []agent.Message{
			agent.NewUserText("a"),
			{Role: agent.RoleAssistant, Content: []agent.ContentBlock{
				agent.ToolUseBlock{ID: "c1", Name: "n", Input: map[string]any{"b": 2, "a": []any{1, "x"}}},
				agent.NewToolResult("c1", "ok", false),
			}},
		},
		UseTools: true,
		Tools:    []agent.ToolSpec{{Name: "n", Parameters: map[string]any{"type": "object"}}},
	}
	first, err := json.Marshal(BuildParams(req, "m"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := json.Marshal(BuildParams(req, "m"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("encoding is not deterministic:\n%s\n%s", first, second)
	}
}
