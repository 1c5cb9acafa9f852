package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"toolbridge/internal/agent"
	"toolbridge/internal/logger"

	anthropic "github.com/anthropics/anthropic-sdk-go"
)

func silenceLogs(t *testing.T) {
	t.Helper()
	root := logger.Root()
	prev := root.Out
	root.SetOutput(io.Discard)
	logger.SetGlobalLLMLogger(logger.NewNoopLLMLogger())
	t.Cleanup(func() {
		root.SetOutput(prev)
		logger.SetGlobalLLMLogger(nil)
	})
}

func TestBuildMessageParamsMovesToolResultsToUserTurn(t *testing.T) {
	req := agent.Request{
		SystemPrompt: "system",
		UseTools:     true,
		Tools: []agent.ToolSpec{{
			Name:        "search_jira_issues",
			Description: "Search Jira",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"jql": map[string]any{"type": "string"}},
				"required":   []any{"jql"},
			},
		}},
		Messages: []agent.Message{
			agent.NewUserText("find bugs"),
			{Role: agent.RoleAssistant, Content: []agent.ContentBlock{
				agent.TextBlock{Text: "looking"},
				agent.ToolUseBlock{ID: "toolu_1", Name: "search_jira_issues", Input: map[string]any{"jql": "type = Bug"}},
				agent.NewToolResult("toolu_1", "", false),
			}},
			agent.NewUserText("and now?"),
		},
	}

	params := buildMessageParams(req, anthropic.Model("claude-test"))

	if len(params.Tools) != 1 || params.Tools[0].OfTool == nil {
		t.Fatalf("tools = %#v", params.Tools)
	}
	if got := params.Tools[0].OfTool.InputSchema.Required; !reflect.DeepEqual(got, []string{"jql"}) {
		t.Fatalf("required = %v", got)
	}
	if params.ToolChoice.OfAuto == nil {
		t.Fatalf("tool_choice should be auto")
	}
	if params.MaxTokens != 8192 {
		t.Fatalf("max_tokens = %d", params.MaxTokens)
	}
	if len(params.System) != 1 || params.System[0].Text != "system" {
		t.Fatalf("system = %#v", params.System)
	}
	if len(params.Messages) != 3 {
		t.Fatalf("messages = %d, want 3 (user, assistant, merged user)", len(params.Messages))
	}
	if params.Messages[1].Role != anthropic.MessageParamRoleAssistant {
		t.Fatalf("messages[1].role = %s", params.Messages[1].Role)
	}
	if len(params.Messages[1].Content) != 2 || params.Messages[1].Content[1].OfToolUse == nil {
		t.Fatalf("assistant content = %#v", params.Messages[1].Content)
	}
	last := params.Messages[2]
	if last.Role != anthropic.MessageParamRoleUser || len(last.Content) != 2 {
		t.Fatalf("last turn = %#v", last)
	}
	result := last.Content[0].OfToolResult
	if result == nil || result.ToolUseID != "toolu_1" {
		t.Fatalf("tool_result = %#v", last.Content[0])
	}
	if len(result.Content) != 1 || result.Content[0].OfText.Text != "Tool executed successfully" {
		t.Fatalf("tool_result content = %#v", result.Content)
	}
	if last.Content[1].OfText == nil || last.Content[1].OfText.Text != "and now?" {
		t.Fatalf("follow-up text = %#v", last.Content[1])
	}
}

func TestBuildMessageParamsWithoutTools(t *testing.T) {
	req := agent.Request{
		Messages: []agent.Message{{Role: agent.RoleUser, Content: []agent.ContentBlock{
			agent.UserActionBlock{Content: []agent.ContentBlock{
				agent.ToolUseBlock{ID: "a", Name: "click", Input: map[string]any{"x": 1}},
			}},
		}}},
		Tools: []agent.ToolSpec{{Name: "ignored"}},
	}
	params := buildMessageParams(req, anthropic.Model("m"))
	if len(params.Tools) != 0 || params.ToolChoice.OfAuto != nil {
		t.Fatalf("tools should be absent when UseTools=false")
	}
	if len(params.System) != 0 {
		t.Fatalf("empty system prompt should be omitted")
	}
	text := params.Messages[0].Content[0].OfText.Text
	if text != "User performed action: click\n{\n  \"x\": 1\n}" {
		t.Fatalf("collapsed action = %q", text)
	}
}

func TestDecodeMessage(t *testing.T) {
	silenceLogs(t)

	var msg anthropic.Message
	raw := `{
  "id": "msg_1",
  "type": "message",
  "role": "assistant",
  "model": "claude-test",
  "content": [
    {"type": "thinking", "thinking": "plan", "signature": "sig"},
    {"type": "text", "text": "calling"},
    {"type": "tool_use", "id": "toolu_1", "name": "search_jira_issues", "input": {"jql": "x"}}
  ],
  "stop_reason": "tool_use",
  "stop_sequence": null,
  "usage": {"input_tokens": 10, "output_tokens": 4}
}`
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	blocks, usage := decodeMessage("claude-test", &msg)
	if len(blocks) != 3 {
		t.Fatalf("blocks = %#v", blocks)
	}
	if th, ok := blocks[0].(agent.ThinkingBlock); !ok || th.Signature != "sig" {
		t.Fatalf("thinking = %#v", blocks[0])
	}
	use := blocks[2].(agent.ToolUseBlock)
	if use.ID != "toolu_1" || !reflect.DeepEqual(use.Input, map[string]any{"jql": "x"}) {
		t.Fatalf("tool use = %#v", use)
	}
	if usage.TotalTokens != 14 {
		t.Fatalf("usage = %+v", usage)
	}
}

func TestGenerateAgainstServer(t *testing.T) {
	silenceLogs(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-Api-Key") != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"m","content":[{"type":"text","text":"pong"}],"stop_reason":"end_turn","stop_sequence":null,"usage":{"input_tokens":3,"output_tokens":1}}`))
	}))
	t.Cleanup(srv.Close)

	client, err := New(Options{Token: "tok", BaseURL: srv.URL + "/v1", Model: "m"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	resp, err := client.Generate(ctx, agent.Request{Messages: []agent.Message{agent.NewUserText("ping")}})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if len(resp.Content) != 1 || resp.Content[0].(agent.TextBlock).Text != "pong" {
		t.Fatalf("content = %#v", resp.Content)
	}

	bad, err := New(Options{Token: "wrong", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	_, err = bad.Generate(ctx, agent.Request{Messages: []agent.Message{agent.NewUserText("ping")}})
	var perr *agent.ProviderError
	if !errors.As(err, &perr) || perr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("error = %v, want 401 ProviderError", err)
	}
	if !strings.Contains(err.Error(), "invalid x-api-key") {
		t.Fatalf("error = %q", err.Error())
	}
}

func TestNewRequiresToken(t *testing.T) {
	if _, err := New(Options{}); !agent.IsConfigError(err) {
		t.Fatalf("New() error = %v, want ConfigError", err)
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	cases := map[string]string{
		"":                                "",
		"https://api.anthropic.com":       "https://api.anthropic.com",
		"https://api.anthropic.com/v1/":   "https://api.anthropic.com",
		"http://proxy.local/anthropic/v1": "http://proxy.local/anthropic",
	}
	for in, want := range cases {
		if got := normalizeBaseURL(in); got != want {
			t.Fatalf("normalizeBaseURL(%q) = %q, want %q", in, got, want)
		}
	}
}
