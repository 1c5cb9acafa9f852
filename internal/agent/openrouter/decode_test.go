package openrouter

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"toolbridge/internal/agent"

	"github.com/openai/openai-go/v3"
)

func completion(t *testing.T, raw string) *openai.ChatCompletion {
	t.Helper()
	var resp openai.ChatCompletion
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal completion: %v", err)
	}
	return &resp
}

func TestDecodeCompletion_TextAndToolCalls(t *testing.T) {
	silenceLogs(t)

	resp := completion(t, `{
  "id": "gen-1",
  "object": "chat.completion",
  "created": 0,
  "model": "openai/gpt-4o",
  "choices": [{
    "index": 0,
    "finish_reason": "tool_calls",
    "message": {
      "role": "assistant",
      "content": "let me look",
      "tool_calls": [
        {"id": "c1", "type": "function", "function": {"name": "search_jira_issues", "arguments": "{\"jql\":\"project = OPS\",\"maxResults\":5}"}},
        {"id": "c2", "type": "function", "function": {"name": "create_jira_issue", "arguments": "{not json"}}
      ]
    }
  }],
  "usage": {"prompt_tokens": 11, "completion_tokens": 7, "total_tokens": 18}
}`)

	blocks, usage := DecodeCompletion(resp)
	if len(blocks) != 3 {
		t.Fatalf("blocks = %d, want 3", len(blocks))
	}
	if text, ok := blocks[0].(agent.TextBlock); !ok || text.Text != "let me look" {
		t.Fatalf("first block = %#v", blocks[0])
	}
	first := blocks[1].(agent.ToolUseBlock)
	if first.ID != "c1" || first.Name != "search_jira_issues" {
		t.Fatalf("first tool use = %#v", first)
	}
	wantInput := map[string]any{"jql": "project = OPS", "maxResults": float64(5)}
	if !reflect.DeepEqual(first.Input, wantInput) {
		t.Fatalf("first input = %#v, want %#v", first.Input, wantInput)
	}
	second := blocks[2].(agent.ToolUseBlock)
	if second.ID != "c2" {
		t.Fatalf("second id = %q", second.ID)
	}
	if !reflect.DeepEqual(second.Input, map[string]any{"raw_arguments": "{not json"}) {
		t.Fatalf("malformed input = %#v", second.Input)
	}
	if usage != (agent.TokenUsage{InputTokens: 11, OutputTokens: 7, TotalTokens: 18}) {
		t.Fatalf("usage = %+v", usage)
	}
}

func TestDecodeCompletion_NoChoices(t *testing.T) {
	silenceLogs(t)

	blocks, usage := DecodeCompletion(completion(t, `{"id":"gen-2","model":"m","choices":[]}`))
	if blocks == nil || len(blocks) != 0 {
		t.Fatalf("blocks = %#v, want empty non-nil slice", blocks)
	}
	if usage != (agent.TokenUsage{}) {
		t.Fatalf("usage = %+v, want zero", usage)
	}

	blocks, _ = DecodeCompletion(nil)
	if len(blocks) != 0 {
		t.Fatalf("nil response blocks = %#v", blocks)
	}
}

func TestDecodeCompletion_EmptyContentAndMissingID(t *testing.T) {
	silenceLogs(t)

	resp := completion(t, `{
  "id": "gen-3",
  "model": "m",
  "choices": [{
    "index": 0,
    "message": {
      "role": "assistant",
      "content": "",
      "tool_calls": [{"id": "", "type": "function", "function": {"name": "x", "arguments": "{}"}}]
    }
  }]
}`)
	blocks, _ := DecodeCompletion(resp)
	if len(blocks) != 1 {
		t.Fatalf("blocks = %d, want 1 (no text block for empty content)", len(blocks))
	}
	use := blocks[0].(agent.ToolUseBlock)
	if !strings.HasPrefix(use.ID, "call_") || len(use.ID) <= len("call_") {
		t.Fatalf("synthesized id = %q", use.ID)
	}
}

func TestDecodeCompletion_SkipsNonFunctionCalls(t *testing.T) {
	silenceLogs(t)

	resp := completion(t, `{
  "id": "gen-4",
  "model": "m",
  "choices": [{
    "index": 0,
    "message": {
      "role": "assistant",
      "content": null,
      "tool_calls": [
        {"id": "k1", "type": "custom", "custom": {"name": "grammar", "input": "x"}},
        {"id": "f1", "type": "function", "function": {"name": "y", "arguments": "[1,2]"}}
      ]
    }
  }]
}`)
	blocks, _ := DecodeCompletion(resp)
	if len(blocks) != 1 {
		t.Fatalf("blocks = %d, want 1", len(blocks))
	}
	use := blocks[0].(agent.ToolUseBlock)
	if use.ID != "f1" || !reflect.DeepEqual(use.Input, []any{float64(1), float64(2)}) {
		t.Fatalf("tool use = %#v", use)
	}
}
