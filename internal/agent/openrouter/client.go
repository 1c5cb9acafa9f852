package openrouter

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"toolbridge/internal/agent"
	"toolbridge/internal/agent/catalog"
	"toolbridge/internal/logger"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	ProviderName   = "openrouter"
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultTitle   = "toolbridge"
)

var log = logger.Named("openrouter")

type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	// Referer/Title 对应 OpenRouter 的 HTTP-Referer 与 X-Title 归属头。
	Referer    string
	Title      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client 通过 OpenRouter 的 chat completions 接口调用模型。
type Client struct {
	api   *openai.Client
	model string
}

// 确保Client实现了agent.ModelClient接口
var _ agent.ModelClient = (*Client)(nil)

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, &agent.ConfigError{Provider: ProviderName, Field: "OPENROUTER_API_KEY"}
	}
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = DefaultTitle
	}
	cfg := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithBaseURL(strings.TrimRight(normalizeBaseURL(base), "/") + "/"),
		option.WithMaxRetries(0),
		option.WithHeader("X-Title", title),
	}
	if referer := strings.TrimSpace(opts.Referer); referer != "" {
		cfg = append(cfg, option.WithHeader("HTTP-Referer", referer))
	}
	if opts.Timeout > 0 {
		cfg = append(cfg, option.WithRequestTimeout(opts.Timeout))
	}
	if opts.HTTPClient != nil {
		cfg = append(cfg, option.WithHTTPClient(opts.HTTPClient))
	}
	client := openai.NewClient(cfg...)

	return &Client{
		api:   &client,
		model: strings.TrimSpace(opts.Model),
	}, nil
}

func (c *Client) resolveModel(model string) string {
	if strings.TrimSpace(model) != "" {
		return model
	}
	if c.model != "" {
		return c.model
	}
	return catalog.Default(catalog.ProviderOpenRouter).Name
}

// Generate 发送一次 chat completion 请求。ctx 被取消时返回 agent.ErrInterrupted。
func (c *Client) Generate(ctx context.Context, req agent.Request) (*agent.Response, error) {
	if c == nil || c.api == nil {
		return nil, &agent.ConfigError{Provider: ProviderName, Field: "client", Reason: "is not initialized"}
	}
	model := c.resolveModel(req.Model)
	params := BuildParams(req, model)

	llm := logger.GlobalLLMLogger()
	llm.Request(ProviderName, model, agent.ToLLMMessages(req.Messages), len(params.Tools))

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
			llm.Interrupted(ProviderName, model)
			return nil, agent.ErrInterrupted
		}
		wrapped := wrapHTTPError(err)
		llm.Error(ProviderName, model, wrapped)
		return nil, wrapped
	}

	blocks, usage := DecodeCompletion(resp)
	llm.Response(ProviderName, model, agent.SummarizeBlocks(blocks), logger.LLMUsage{
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		TotalTokens:  usage.TotalTokens,
	})
	return &agent.Response{Content: blocks, Usage: usage}, nil
}

func wrapHTTPError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		msg := strings.TrimSpace(apiErr.Message)
		if msg == "" {
			msg = strings.TrimSpace(apiErr.RawJSON())
		}
		if msg == "" && apiErr.Response != nil {
			msg = strings.TrimSpace(string(apiErr.DumpResponse(true)))
		}
		return &agent.ProviderError{Provider: ProviderName, StatusCode: apiErr.StatusCode, Message: msg, Err: err}
	}
	return &agent.ProviderError{Provider: ProviderName, Message: err.Error(), Err: err}
}
