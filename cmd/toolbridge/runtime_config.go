package main

import (
	"fmt"
	"strings"

	"toolbridge/internal/agent"
	anthropicmodel "toolbridge/internal/agent/anthropic"
	"toolbridge/internal/agent/catalog"
	"toolbridge/internal/agent/openrouter"
	"toolbridge/internal/atlassian"
	"toolbridge/internal/config"
	"toolbridge/internal/logger"
)

// commonFlags 是 ask 与 ping 共享的配置相关参数。
type commonFlags struct {
	cfgPath   string
	provider  string
	model     string
	overrides overrideFlag
}

// loadRuntimeConfig 依次应用 .env、配置文件、环境变量、-c 覆盖与命令行参数。
func loadRuntimeConfig(root rootArgs, flags commonFlags) (config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		log.Warnf("%v", err)
	}
	cfg, err := config.Load(flags.cfgPath)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	cfg = config.ApplyKVOverrides(cfg, prependOverrides(root.overrides, flags.overrides))
	if p := strings.TrimSpace(flags.provider); p != "" {
		cfg.Provider = p
	}
	if m := strings.TrimSpace(flags.model); m != "" {
		cfg.Model = m
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		log.Warnf("ignoring log_level %q: %v", cfg.LogLevel, err)
	}
	if err := logger.SetFormat(cfg.LogFormat); err != nil {
		log.Warnf("ignoring log_format %q: %v", cfg.LogFormat, err)
	}
	return cfg, nil
}

// resolveModel 返回配置的模型，未配置时取该 provider 的默认模型。
func resolveModel(cfg config.Config) string {
	if m := strings.TrimSpace(cfg.Model); m != "" {
		if _, ok := catalog.Lookup(cfg.Provider, m); !ok {
			log.Infof("model %q is not in the %s catalog; sending it as-is", m, cfg.Provider)
		}
		return m
	}
	return catalog.Default(cfg.Provider).Name
}

func buildModelClient(cfg config.Config) (agent.ModelClient, error) {
	model := resolveModel(cfg)
	timeout := cfg.RequestTimeout()
	var (
		client agent.ModelClient
		err    error
	)
	switch cfg.Provider {
	case catalog.ProviderOpenRouter:
		client, err = newOpenRouter(openrouter.Options{
			APIKey:  cfg.OpenRouter.APIKey,
			BaseURL: cfg.OpenRouter.BaseURL,
			Model:   model,
			Referer: cfg.OpenRouter.Referer,
			Title:   cfg.OpenRouter.Title,
			Timeout: timeout,
		})
	case catalog.ProviderProxy:
		if strings.TrimSpace(cfg.Proxy.BaseURL) == "" {
			return nil, &agent.ConfigError{Provider: catalog.ProviderProxy, Field: "LLM_PROXY_URL"}
		}
		if strings.TrimSpace(cfg.Proxy.APIKey) == "" {
			return nil, &agent.ConfigError{Provider: catalog.ProviderProxy, Field: "LLM_PROXY_API_KEY"}
		}
		client, err = newOpenRouter(openrouter.Options{
			APIKey:  cfg.Proxy.APIKey,
			BaseURL: cfg.Proxy.BaseURL,
			Model:   model,
			Timeout: timeout,
		})
	case catalog.ProviderAnthropic:
		var c *anthropicmodel.Client
		if c, err = anthropicmodel.New(anthropicmodel.Options{
			Token:   cfg.Anthropic.APIKey,
			BaseURL: cfg.Anthropic.BaseURL,
			Model:   model,
			Timeout: timeout,
		}); err == nil {
			client = c
		}
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

// newOpenRouter 避免把 nil *Client 包装成非 nil 的接口值。
func newOpenRouter(opts openrouter.Options) (agent.ModelClient, error) {
	c, err := openrouter.New(opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// providerBaseURL 返回当前 provider 实际请求的地址，用于 ping --dial。
func providerBaseURL(cfg config.Config) string {
	switch cfg.Provider {
	case catalog.ProviderProxy:
		return cfg.Proxy.BaseURL
	case catalog.ProviderAnthropic:
		if cfg.Anthropic.BaseURL != "" {
			return cfg.Anthropic.BaseURL
		}
		return anthropicmodel.DefaultBaseURL
	default:
		if cfg.OpenRouter.BaseURL != "" {
			return cfg.OpenRouter.BaseURL
		}
		return openrouter.DefaultBaseURL
	}
}

func newAtlassianClient(cfg config.Config) *atlassian.Client {
	return atlassian.New(atlassian.Config{
		BaseURL:  cfg.Atlassian.BaseURL,
		Email:    cfg.Atlassian.Email,
		APIToken: cfg.Atlassian.APIToken,
		Timeout:  cfg.RequestTimeout(),
	})
}
