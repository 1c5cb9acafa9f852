package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const pongCompletion = `{
  "id": "gen-1",
  "object": "chat.completion",
  "created": 0,
  "model": "openai/gpt-4o",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "pong"}}],
  "usage": {"prompt_tokens": 5, "completion_tokens": 1, "total_tokens": 6}
}`

func TestRunPing_RoundTrip(t *testing.T) {
	cfgPath := isolateEnv(t)
	srv, requests := newChatServer(t, pongCompletion)
	t.Setenv("OPENROUTER_API_KEY", "test-key")
	t.Setenv("OPENROUTER_BASE_URL", srv.URL)

	var out bytes.Buffer
	if err := runPing(rootArgs{}, []string{"--config", cfgPath}, &out); err != nil {
		t.Fatalf("runPing: %v", err)
	}
	if got := out.String(); got != "ok: pong\n" {
		t.Fatalf("ping output = %q", got)
	}
	got := requests()
	if len(got) != 1 {
		t.Fatalf("requests = %d", len(got))
	}
	if _, ok := got[0]["tools"]; ok {
		t.Fatalf("ping must not offer tools")
	}
}

func TestRunPing_ProxyProviderUsesProxySettings(t *testing.T) {
	cfgPath := isolateEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer proxy-key" {
			http.Error(w, "bad key", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(pongCompletion))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("LLM_PROXY_URL", srv.URL)
	t.Setenv("LLM_PROXY_API_KEY", "proxy-key")

	var out bytes.Buffer
	if err := runPing(rootArgs{overrides: []string{"provider=proxy"}}, []string{"--config", cfgPath}, &out); err != nil {
		t.Fatalf("runPing: %v", err)
	}
	if !strings.HasPrefix(out.String(), "ok: pong") {
		t.Fatalf("ping output = %q", out.String())
	}
}

func TestRunPing_ProviderErrorIsReturned(t *testing.T) {
	cfgPath := isolateEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "No auth credentials found", "code": 401}}`))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("OPENROUTER_API_KEY", "wrong")
	t.Setenv("OPENROUTER_BASE_URL", srv.URL)

	var out bytes.Buffer
	err := runPing(rootArgs{}, []string{"--config", cfgPath}, &out)
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("err = %v, want http 401", err)
	}
}

func TestRunPing_DialAndAtlassian(t *testing.T) {
	cfgPath := isolateEnv(t)
	var chatCalls int
	chat := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatCalls++
		http.NotFound(w, r)
	}))
	t.Cleanup(chat.Close)
	jira := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/myself" {
			http.NotFound(w, r)
			return
		}
		if user, token, ok := r.BasicAuth(); !ok || user != "dev@example.com" || token != "tok" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"accountId":    "acc-1",
			"displayName":  "Dev",
			"emailAddress": "dev@example.com",
		})
	}))
	t.Cleanup(jira.Close)

	t.Setenv("OPENROUTER_API_KEY", "test-key")
	t.Setenv("OPENROUTER_BASE_URL", chat.URL)
	t.Setenv("ATLASSIAN_BASE_URL", jira.URL)
	t.Setenv("ATLASSIAN_EMAIL", "dev@example.com")
	t.Setenv("ATLASSIAN_API_TOKEN", "tok")

	var out bytes.Buffer
	if err := runPing(rootArgs{}, []string{"--config", cfgPath, "--dial", "--atlassian"}, &out); err != nil {
		t.Fatalf("runPing: %v", err)
	}
	want := "ok: " + chat.URL + " reachable\natlassian: Dev <dev@example.com>\n"
	if out.String() != want {
		t.Fatalf("output = %q, want %q", out.String(), want)
	}
	if chatCalls != 0 {
		t.Fatalf("--dial should not send HTTP requests, got %d", chatCalls)
	}
}

func TestAtlassianIdentity(t *testing.T) {
	cases := []struct{ name, email, want string }{
		{"Dev", "dev@example.com", "Dev <dev@example.com>"},
		{"Dev", "", "Dev"},
		{"", "dev@example.com", "dev@example.com"},
	}
	for _, tc := range cases {
		if got := atlassianIdentity(tc.name, tc.email); got != tc.want {
			t.Fatalf("atlassianIdentity(%q, %q) = %q, want %q", tc.name, tc.email, got, tc.want)
		}
	}
}
