package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"toolbridge/internal/agent/catalog"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/samber/lo"
)

const (
	DefaultMaxTurns              = 10
	DefaultRequestTimeoutSeconds = 120
)

// Config is the only persisted config file schema.
type Config struct {
	Provider              string `toml:"provider"`
	Model                 string `toml:"model,omitempty"`
	MaxTurns              int    `toml:"max_turns"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	LogLevel              string `toml:"log_level,omitempty"`
	LogFormat             string `toml:"log_format,omitempty"`

	OpenRouter OpenRouterConfig `toml:"openrouter"`
	Proxy      ProxyConfig      `toml:"proxy"`
	Anthropic  AnthropicConfig  `toml:"anthropic"`
	Atlassian  AtlassianConfig  `toml:"atlassian"`

	Source string `toml:"-"`
}

type OpenRouterConfig struct {
	APIKey  string `toml:"api_key,omitempty"`
	BaseURL string `toml:"base_url,omitempty"`
	// Referer/Title 作为 HTTP-Referer 与 X-Title 头发送给 OpenRouter。
	Referer string `toml:"referer,omitempty"`
	Title   string `toml:"title,omitempty"`
}

// ProxyConfig 指向兼容 chat completions 协议的自建代理（如 LiteLLM）。
type ProxyConfig struct {
	BaseURL string `toml:"base_url,omitempty"`
	APIKey  string `toml:"api_key,omitempty"`
}

type AnthropicConfig struct {
	APIKey  string `toml:"api_key,omitempty"`
	BaseURL string `toml:"base_url,omitempty"`
}

type AtlassianConfig struct {
	BaseURL  string `toml:"base_url,omitempty"`
	Email    string `toml:"email,omitempty"`
	APIToken string `toml:"api_token,omitempty"`
}

func Default() Config {
	return Config{
		Provider:              catalog.ProviderOpenRouter,
		MaxTurns:              DefaultMaxTurns,
		RequestTimeoutSeconds: DefaultRequestTimeoutSeconds,
	}
}

func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".toolbridge", "config.toml")
}

// LoadDotEnv 把 .env 文件中的变量加入进程环境，已存在的变量不会被覆盖。
// 文件不存在时静默跳过。
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load 读取 TOML 配置，文件不存在时使用默认值；随后用环境变量覆盖。
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return cfg, errors.New("config path is empty and $HOME is not set")
	}
	cfg.Source = path

	content, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, err
	}
	if err == nil {
		if err := toml.Unmarshal(content, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

var envOverrides = []struct {
	name  string
	field func(*Config) *string
}{
	{"TOOLBRIDGE_PROVIDER", func(c *Config) *string { return &c.Provider }},
	{"TOOLBRIDGE_MODEL", func(c *Config) *string { return &c.Model }},
	{"OPENROUTER_API_KEY", func(c *Config) *string { return &c.OpenRouter.APIKey }},
	{"OPENROUTER_BASE_URL", func(c *Config) *string { return &c.OpenRouter.BaseURL }},
	{"LLM_PROXY_URL", func(c *Config) *string { return &c.Proxy.BaseURL }},
	{"LLM_PROXY_API_KEY", func(c *Config) *string { return &c.Proxy.APIKey }},
	{"ANTHROPIC_API_KEY", func(c *Config) *string { return &c.Anthropic.APIKey }},
	{"ANTHROPIC_BASE_URL", func(c *Config) *string { return &c.Anthropic.BaseURL }},
	{"ATLASSIAN_BASE_URL", func(c *Config) *string { return &c.Atlassian.BaseURL }},
	{"ATLASSIAN_EMAIL", func(c *Config) *string { return &c.Atlassian.Email }},
	{"ATLASSIAN_API_TOKEN", func(c *Config) *string { return &c.Atlassian.APIToken }},
}

func applyEnv(cfg *Config) {
	for _, ov := range envOverrides {
		if env := strings.TrimSpace(os.Getenv(ov.name)); env != "" {
			*ov.field(cfg) = env
		}
	}
}

// Validate 检查 provider 与数值配置。凭据缺失不在这里报错，由各客户端返回 ConfigError。
func (c Config) Validate() error {
	if !lo.Contains(catalog.Providers(), c.Provider) {
		return fmt.Errorf("unknown provider %q (want one of %s)", c.Provider, strings.Join(catalog.Providers(), ", "))
	}
	if c.MaxTurns <= 0 {
		return fmt.Errorf("max_turns must be positive, got %d", c.MaxTurns)
	}
	if c.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("request_timeout_seconds must not be negative, got %d", c.RequestTimeoutSeconds)
	}
	return nil
}

// RequestTimeout 返回单次模型请求的超时时间，0 表示不限制。
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}
