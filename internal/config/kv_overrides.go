package config

import (
	"strconv"
	"strings"
)

// ApplyKVOverrides applies free-form -c key=value overrides.
// Unknown keys and unparsable numbers are ignored.
func ApplyKVOverrides(cfg Config, overrides []string) Config {
	if len(overrides) == 0 {
		return cfg
	}
	for _, raw := range overrides {
		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(parts[0]))
		val := strings.TrimSpace(parts[1])
		switch key {
		case "provider":
			cfg.Provider = val
		case "model":
			cfg.Model = val
		case "log_level":
			cfg.LogLevel = val
		case "log_format":
			cfg.LogFormat = val
		case "max_turns":
			if n, err := strconv.Atoi(val); err == nil {
				cfg.MaxTurns = n
			}
		case "request_timeout_seconds":
			if n, err := strconv.Atoi(val); err == nil {
				cfg.RequestTimeoutSeconds = n
			}
		case "openrouter.api_key":
			cfg.OpenRouter.APIKey = val
		case "openrouter.base_url":
			cfg.OpenRouter.BaseURL = val
		case "openrouter.referer":
			cfg.OpenRouter.Referer = val
		case "openrouter.title":
			cfg.OpenRouter.Title = val
		case "proxy.base_url":
			cfg.Proxy.BaseURL = val
		case "proxy.api_key":
			cfg.Proxy.APIKey = val
		case "anthropic.api_key":
			cfg.Anthropic.APIKey = val
		case "anthropic.base_url":
			cfg.Anthropic.BaseURL = val
		case "atlassian.base_url":
			cfg.Atlassian.BaseURL = val
		case "atlassian.email":
			cfg.Atlassian.Email = val
		case "atlassian.api_token":
			cfg.Atlassian.APIToken = val
		}
	}
	return cfg
}
