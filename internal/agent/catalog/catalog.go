// Package catalog 维护各模型服务可选的模型列表。
package catalog

import (
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderProxy      = "proxy"
	ProviderAnthropic  = "anthropic"
)

// Model 描述一个可选模型。
type Model struct {
	Provider      string
	Name          string
	Title         string
	ContextWindow int
}

var openRouterModels = []Model{
	{ProviderOpenRouter, "anthropic/claude-3.5-sonnet", "Claude 3.5 Sonnet (OpenRouter)", 200000},
	{ProviderOpenRouter, "openai/gpt-4o", "GPT-4o (OpenRouter)", 128000},
	{ProviderOpenRouter, "google/gemini-pro-1.5", "Gemini Pro 1.5 (OpenRouter)", 1000000},
	{ProviderOpenRouter, "meta-llama/llama-3.1-405b-instruct", "Llama 3.1 405B (OpenRouter)", 131072},
	{ProviderOpenRouter, "anthropic/claude-3-opus", "Claude 3 Opus (OpenRouter)", 200000},
	{ProviderOpenRouter, "z-ai/glm-4.5-air:free", "GLM-4.5-Air (Free)", 128000},
	{ProviderOpenRouter, "tngtech/deepseek-r1t2-chimera:free", "DeepSeek R1T2 Chimera (Free)", 32768},
}

// proxy 指 OpenAI 兼容的自建网关，模型名不带厂商前缀。
var proxyModels = []Model{
	{ProviderProxy, "claude-3.5-sonnet", "Claude 3.5 Sonnet", 200000},
	{ProviderProxy, "claude-3-opus", "Claude 3 Opus", 200000},
	{ProviderProxy, "claude-3-haiku", "Claude 3 Haiku", 200000},
	{ProviderProxy, "gpt-4o", "GPT-4o", 128000},
	{ProviderProxy, "gpt-4-turbo", "GPT-4 Turbo", 128000},
	{ProviderProxy, "gpt-4", "GPT-4", 8000},
	{ProviderProxy, "gpt-3.5-turbo", "GPT-3.5 Turbo", 4000},
	{ProviderProxy, "z-ai/glm-4.5-air:free", "GLM-4.5-Air (FREE)", 128000},
	{ProviderProxy, "deepseek/deepseek-chat-v3.1:free", "DeepSeek Chat v3.1 (FREE)", 64000},
	{ProviderProxy, "qwen/qwen3-coder:free", "Qwen 3 Coder (FREE)", 32000},
}

var anthropicModels = []Model{
	{ProviderAnthropic, "claude-3-5-sonnet-latest", "Claude 3.5 Sonnet", 200000},
	{ProviderAnthropic, "claude-3-opus-latest", "Claude 3 Opus", 200000},
	{ProviderAnthropic, "claude-3-5-haiku-latest", "Claude 3.5 Haiku", 200000},
}

// Providers 返回已知的模型服务名称。
func Providers() []string {
	return []string{ProviderOpenRouter, ProviderProxy, ProviderAnthropic}
}

// All 返回全部模型，顺序固定：openrouter、proxy、anthropic。
func All() []Model {
	out := make([]Model, 0, len(openRouterModels)+len(proxyModels)+len(anthropicModels))
	out = append(out, openRouterModels...)
	out = append(out, proxyModels...)
	out = append(out, anthropicModels...)
	return out
}

// ForProvider 返回某个服务的模型列表；未知服务返回 nil。
func ForProvider(provider string) []Model {
	switch normalizeProvider(provider) {
	case ProviderOpenRouter:
		return append([]Model(nil), openRouterModels...)
	case ProviderProxy:
		return append([]Model(nil), proxyModels...)
	case ProviderAnthropic:
		return append([]Model(nil), anthropicModels...)
	default:
		return nil
	}
}

// Default 返回服务的默认模型（列表第一项）；未知服务回落到 OpenRouter。
func Default(provider string) Model {
	models := ForProvider(provider)
	if len(models) == 0 {
		models = openRouterModels
	}
	return models[0]
}

// Lookup 按名称精确查找模型，provider 为空时在全部列表中查找。
// 同名模型存在于多个服务时返回第一个匹配项。
func Lookup(provider, name string) (Model, bool) {
	name = strings.TrimSpace(name)
	pool := All()
	if strings.TrimSpace(provider) != "" {
		pool = ForProvider(provider)
	}
	return lo.Find(pool, func(m Model) bool {
		return m.Name == name
	})
}

// Search 在名称与标题上做模糊匹配，按相关度排序；query 为空时返回全部模型。
func Search(provider, query string) []Model {
	pool := All()
	if strings.TrimSpace(provider) != "" {
		pool = ForProvider(provider)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return pool
	}
	targets := lo.Map(pool, func(m Model, _ int) string {
		return m.Name + " " + m.Title
	})
	matches := fuzzy.Find(query, targets)
	return lo.Map(matches, func(match fuzzy.Match, _ int) Model {
		return pool[match.Index]
	})
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}
