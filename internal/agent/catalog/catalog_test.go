package catalog

import "testing"

func TestDefault(t *testing.T) {
	cases := map[string]string{
		ProviderOpenRouter: "anthropic/claude-3.5-sonnet",
		"  OpenRouter ":    "anthropic/claude-3.5-sonnet",
		ProviderProxy:      "claude-3.5-sonnet",
		ProviderAnthropic:  "claude-3-5-sonnet-latest",
		"unknown":          "anthropic/claude-3.5-sonnet",
	}
	for provider, want := range cases {
		if got := Default(provider).Name; got != want {
			t.Fatalf("Default(%q) = %q, want %q", provider, got, want)
		}
	}
}

func TestLookup(t *testing.T) {
	m, ok := Lookup("", "openai/gpt-4o")
	if !ok || m.ContextWindow != 128000 || m.Provider != ProviderOpenRouter {
		t.Fatalf("Lookup(openai/gpt-4o) = %+v, %v", m, ok)
	}
	m, ok = Lookup(ProviderProxy, "z-ai/glm-4.5-air:free")
	if !ok || m.Provider != ProviderProxy {
		t.Fatalf("Lookup(proxy, glm) = %+v, %v", m, ok)
	}
	if _, ok := Lookup(ProviderAnthropic, "gpt-4"); ok {
		t.Fatalf("Lookup(anthropic, gpt-4) should miss")
	}
}

func TestSearch(t *testing.T) {
	got := Search(ProviderOpenRouter, "llama")
	if len(got) == 0 || got[0].Name != "meta-llama/llama-3.1-405b-instruct" {
		t.Fatalf("Search(llama) = %+v", got)
	}
	if got := Search(ProviderProxy, ""); len(got) != 10 {
		t.Fatalf("Search(proxy, \"\") returned %d models, want 10", len(got))
	}
	if got := Search("", "zzzzzz"); len(got) != 0 {
		t.Fatalf("Search(zzzzzz) = %+v, want none", got)
	}
	for _, m := range Search(ProviderOpenRouter, "free") {
		if m.Provider != ProviderOpenRouter {
			t.Fatalf("provider filter leaked %+v", m)
		}
	}
}

func TestForProviderReturnsCopy(t *testing.T) {
	models := ForProvider(ProviderOpenRouter)
	models[0].Name = "mutated"
	if Default(ProviderOpenRouter).Name == "mutated" {
		t.Fatalf("ForProvider must not expose the backing slice")
	}
}
